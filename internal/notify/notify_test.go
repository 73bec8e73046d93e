package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Notify(Error, "boom")
	r.Notify(Info, "hello")
	r.Notify(Error, "again")

	assert.Equal(t, 2, r.Count(Error))
	assert.Equal(t, 0, r.Count(Blocking))
	assert.Equal(t, Message{Level: Info, Text: "hello"}, r.Messages()[1])
}

func TestRelay(t *testing.T) {
	var relay Relay
	relay.Notify(Info, "logged only")

	r := &Recorder{}
	relay.Set(r)
	relay.Notify(Blocking, "shown")
	assert.Equal(t, []Message{{Level: Blocking, Text: "shown"}}, r.Messages())

	var got []string
	relay.Set(Func(func(_ Level, m string) { got = append(got, m) }))
	relay.Notify(Success, "via func")
	assert.Equal(t, []string{"via func"}, got)
	assert.Len(t, r.Messages(), 1)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "blocking", Blocking.String())
	assert.Equal(t, "level(9)", Level(9).String())
}
