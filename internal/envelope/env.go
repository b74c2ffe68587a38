package envelope

import "os"

// RequireEnv reads a required environment variable, failing fast with a
// MissingEnv error when it is absent or empty.
func RequireEnv(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", &Error{Kind: MissingEnv, Field: name}
	}
	return v, nil
}
