package models

// JSONValue is a parsed JSON value. The concrete type is one of JSONNull,
// JSONBool, JSONInt, JSONFloat, JSONString, JSONArray or JSONObject.
type JSONValue interface {
	jsonValue()
}

// JSONNull is the JSON null literal.
type JSONNull struct{}

// JSONBool is a JSON true or false.
type JSONBool bool

// JSONInt is a JSON number whose value is integral. Literal keeps the number
// as written in the source document.
type JSONInt struct {
	Literal string
}

// JSONFloat is a JSON number with a fractional part.
type JSONFloat struct {
	Literal string
}

// JSONString is a JSON string.
type JSONString string

// JSONArray is a JSON array.
type JSONArray []JSONValue

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value JSONValue
}

// JSONObject is a JSON object. Members are kept in document order.
type JSONObject []Member

func (JSONNull) jsonValue()   {}
func (JSONBool) jsonValue()   {}
func (JSONInt) jsonValue()    {}
func (JSONFloat) jsonValue()  {}
func (JSONString) jsonValue() {}
func (JSONArray) jsonValue()  {}
func (JSONObject) jsonValue() {}

// Get returns the value stored under key and whether it was present.
func (o JSONObject) Get(key string) (JSONValue, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the object keys in document order.
func (o JSONObject) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}
