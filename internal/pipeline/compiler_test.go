package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thaw-dev/thaw-cli/internal/logging"
)

func TestValidateCommandRejectsUnknownBinary(t *testing.T) {
	assert.Error(t, validateCommand("rm"))
	assert.NoError(t, validateCommand("cargo"))
	assert.NoError(t, validateCommand("wasm-bindgen"))
	assert.NoError(t, validateCommand("wasm-opt"))
}

func TestHandleLineRecordsArtifactPath(t *testing.T) {
	result := &CompileResult{}
	var mu sync.Mutex
	ch := make(chan logging.Message, 4)
	handleLine(`{"reason":"compiler-artifact","executable":"/tmp/target/debug/app"}`, ch, result, &mu)
	assert.Equal(t, "/tmp/target/debug/app", result.ExecutablePath)
}

func TestHandleLineRecordsBuildFinished(t *testing.T) {
	result := &CompileResult{}
	var mu sync.Mutex
	ch := make(chan logging.Message, 4)
	handleLine(`{"reason":"build-finished","success":true}`, ch, result, &mu)
	assert.True(t, result.Success)
}

func TestHandleLineRecordsBuildFailure(t *testing.T) {
	result := &CompileResult{}
	var mu sync.Mutex
	ch := make(chan logging.Message, 4)
	handleLine(`{"reason":"build-finished","success":false}`, ch, result, &mu)
	assert.False(t, result.Success)
	assert.Error(t, result.buildFailed)
}

func TestHandleLineClassifiesPlainTextLine(t *testing.T) {
	result := &CompileResult{}
	var mu sync.Mutex
	ch := make(chan logging.Message, 1)
	handleLine("Compiling thaw-app v0.1.0", ch, result, &mu)
	msg := <-ch
	assert.Equal(t, logging.KindCompiling, msg.Kind)
}
