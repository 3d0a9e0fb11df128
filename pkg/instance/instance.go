package instance

import "os"

// GetID returns an identifier for the running process, used to tag logs and
// lock ownership. STOREFRONT_INSTANCE_ID wins, then the platform dyno name.
func GetID() string {
	for _, key := range []string{"STOREFRONT_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
