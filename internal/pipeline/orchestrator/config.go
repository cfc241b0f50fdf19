// internal/pipeline/orchestrator/config.go
package orchestrator

import "time"

type Config struct {
	OverallTimeout   time.Duration
	RetrievalTimeout time.Duration
	PersistTimeout   time.Duration
}
