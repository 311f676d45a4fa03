package instance

import "github.com/angelmondragon/shareit-backend/pkg/env"

// ID returns the process instance identifier used in logs and lock owner tokens.
func ID() string {
	return env.First("local", "SHAREIT_INSTANCE_ID", "DYNO", "HOSTNAME")
}
