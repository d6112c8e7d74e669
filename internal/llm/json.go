package llm

import "encoding/json"

func unmarshalJSON(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}
