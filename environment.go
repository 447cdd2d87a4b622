package portfoliolive

import "os"

// Region is the deployment region reported by the host platform, or "local".
func Region() string {
	if region, ok := os.LookupEnv("FLY_REGION"); ok && region != "" {
		return region
	}
	return "local"
}

// Instance names this process within a deployment.
func Instance() string {
	if id, ok := os.LookupEnv("FLY_ALLOC_ID"); ok && id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
