package logsvc

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/user"
)

func TestNewEntry(t *testing.T) {
	ann := user.User{Email: "ann@school.io", Name: "Ann"}
	bob := user.User{Email: "bob@school.io", Name: "Bob"}
	first := errors.New("first")

	e := newEntry(rollbar.ERR, "saving result", []interface{}{
		ann, bob, first, errors.New("second"), map[string]interface{}{"subject": "math"}, 42,
	})

	assert.Equal(t, rollbar.ERR, e.level)
	assert.Equal(t, "saving result", e.msg)
	assert.Equal(t, first, e.err)
	assert.Equal(t, map[string]interface{}{
		"subject": "math",
		"args":    []interface{}{"second", 42},
	}, e.extras)

	p, ok := rollbar.PersonFromContext(e.ctx)
	require.True(t, ok)
	assert.Equal(t, &rollbar.Person{Id: "ann@school.io", Username: "Ann", Email: "ann@school.io"}, p,
		"failed! only the first user is reported")

	t.Run("no user", func(t *testing.T) {
		e := newEntry(rollbar.INFO, "hello", nil)
		_, ok := rollbar.PersonFromContext(e.ctx)
		assert.False(t, ok)
		assert.Nil(t, e.err)
		assert.Empty(t, e.extras)
	})
}

func TestRollbarLogger_ConcurrentPersons(t *testing.T) {
	var mu sync.Mutex
	got := map[string]string{}
	l := RollbarLogger{
		std: log.New(ioutil.Discard, "", 0),
		report: func(e entry) {
			p, ok := rollbar.PersonFromContext(e.ctx)
			mu.Lock()
			defer mu.Unlock()
			if ok {
				got[e.msg] = p.Email
			} else {
				got[e.msg] = ""
			}
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("msg %d", i)
			if i%2 == 0 {
				l.Error(msg, user.User{Email: fmt.Sprintf("u%d@school.io", i)})
			} else {
				l.Warn(msg)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, got, 50)
	for i := 0; i < 50; i++ {
		want := ""
		if i%2 == 0 {
			want = fmt.Sprintf("u%d@school.io", i)
		}
		assert.Equal(t, want, got[fmt.Sprintf("msg %d", i)], "failed! report %d tagged with the wrong user", i)
	}
}

func TestRollbarLogger_MirrorsToStd(t *testing.T) {
	var buf bytes.Buffer
	l := RollbarLogger{std: log.New(&buf, "", 0)}
	l.Info("ready", map[string]interface{}{"port": 8000})
	assert.Equal(t, "ready\nmap[port:8000]\n", buf.String())
}
