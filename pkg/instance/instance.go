package instance

import "os"

// GetID returns the process instance identifier used to tell replicas
// apart in logs. Falls back to "api-0" outside managed environments.
func GetID() string {
	if id := os.Getenv("DATAMART_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	return "api-0"
}
