package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("MAX_CONTEXT_TOKENS", "")
	t.Setenv("ANSWER_TIMEOUT", "15s")
	t.Setenv("INGEST_TIMEOUT", "")
	t.Setenv("PUBLISH_TIMEOUT", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("window = %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK default = %d", cfg.TopK)
	}
	if cfg.AnswerTimeout != 15*time.Second || cfg.IngestTimeout != 5*time.Minute {
		t.Errorf("timeouts = %s/%s", cfg.AnswerTimeout, cfg.IngestTimeout)
	}
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		key, value, want string
	}{
		{"CHUNK_SIZE", "big", "not an integer"},
		{"ANSWER_TIMEOUT", "soon", "not a duration"},
		{"CHUNK_OVERLAP", "5000", "CHUNK_OVERLAP"},
		{"RETRIEVAL_TOP_K", "0", "RETRIEVAL_TOP_K"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			for _, k := range []string{"CHUNK_SIZE", "CHUNK_OVERLAP", "RETRIEVAL_TOP_K", "MAX_CONTEXT_TOKENS", "ANSWER_TIMEOUT", "INGEST_TIMEOUT", "PUBLISH_TIMEOUT"} {
				t.Setenv(k, "")
			}
			t.Setenv(tc.key, tc.value)
			_, err := ConfigFromEnv()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want substring %q", err, tc.want)
			}
		})
	}
}
