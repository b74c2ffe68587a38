package envelope

// Payload is the canonical inner payload of a trigger event, accessed by
// string key after boundary parsing.
type Payload map[string]interface{}

// empty is a falsy check: absent keys, nil, empty strings, empty
// collections, zero and false all count as missing.
func empty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

// Require returns the value under key, or a MissingField error.
func (p Payload) Require(key string) (interface{}, error) {
	v := p[key]
	if empty(v) {
		return nil, missing(key)
	}
	return v, nil
}

// RequireString returns the string under key.
func (p Payload) RequireString(key string) (string, error) {
	v, err := p.Require(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", unexpected(key)
	}
	return s, nil
}

// Expect checks that key holds exactly want.
func (p Payload) Expect(key string, want interface{}) error {
	v, err := p.Require(key)
	if err != nil {
		return err
	}
	if v != want {
		return unexpected(key)
	}
	return nil
}

// Child returns the nested object under key.
func (p Payload) Child(key string) (Payload, error) {
	v, err := p.Require(key)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, unexpected(key)
	}
	return Payload(m), nil
}

// StringSlice returns the string list under key.
func (p Payload) StringSlice(key string) ([]string, error) {
	v, err := p.Require(key)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, unexpected(key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, unexpected(key)
		}
		out = append(out, s)
	}
	return out, nil
}
