package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/partnerships/core"
)

func TestRollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(new(bytes.Buffer), "", 0), &core.Config{TestMode: true})
	err := errors.New("boom")
	extra := map[string]interface{}{"partnership_id": "p1"}

	args := logger.prepare("msg", []interface{}{err, core.Person{ID: "1"}, extra, core.Person{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", err, extra}, args)
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{TestMode: true})

	logger.Warn("gap found", "p1")
	assert.Equal(t, "[WARN] gap found\np1\n", buf.String())
}
