package core

type (
	// Logger is any service that can record application events.
	// args may contain an error, an Actor and a map[string]interface{} of extras.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Actor is the authenticated user on whose behalf an action runs.
	Actor struct {
		ID       string
		Username string
		Email    string
		Roles    []string
	}
)
