package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTextLine(t *testing.T) {
	cases := map[string]Kind{
		"Compiling foo v0.1.0": KindCompiling,
		"Blocking waiting for file lock": KindBlocking,
		"Finished dev [unoptimized] target(s)": KindFinished,
		"warning: unused variable":             KindWarning,
		"something else entirely":              KindOther,
	}
	for line, want := range cases {
		assert.Equal(t, want, ClassifyTextLine(line), line)
	}
}

func TestSendNonBlockingOnFullChannel(t *testing.T) {
	ch := make(chan Message, 1)
	Send(ch, Message{Kind: KindInfo, Text: "first"})
	done := make(chan struct{})
	go func() {
		Send(ch, Message{Kind: KindInfo, Text: "second"})
		close(done)
	}()
	<-done // must not block even though the channel is already full
}

func TestConsumerDrainsUntilClosed(t *testing.T) {
	ch := make(chan Message, 4)
	ch <- Message{Kind: KindInfo, Text: "hello"}
	ch <- Message{Kind: KindWarning, Text: "careful"}
	close(ch)

	c := NewConsumer()
	done := make(chan struct{})
	go func() {
		c.Run(ch)
		close(done)
	}()
	<-done
}
