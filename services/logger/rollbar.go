package logsvc

import (
	"context"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a std logger.
//
// Args may carry one error, any number of map[string]interface{} extras and
// the session user.User. Anything else is kept under the "args" extra.
type RollbarLogger struct {
	std    *log.Logger
	report reportFunc
}

var _ core.Logger = (*RollbarLogger)(nil)

type reportFunc func(e entry)

// entry is one report. The person travels in ctx, so concurrent reports
// never share it.
type entry struct {
	ctx    context.Context
	level  string
	msg    string
	err    error
	extras map[string]interface{}
}

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, report: sendToRollbar}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func sendToRollbar(e entry) {
	if e.err != nil {
		e.extras["message"] = e.msg
		rollbar.ErrorWithExtrasAndContext(e.ctx, e.level, e.err, e.extras)
		return
	}
	rollbar.MessageWithExtrasAndContext(e.ctx, e.level, e.msg, e.extras)
}

func newEntry(level, msg string, args []interface{}) entry {
	e := entry{ctx: context.Background(), level: level, msg: msg, extras: map[string]interface{}{}}
	var person bool
	var rest []interface{}
	for _, arg := range args {
		switch v := arg.(type) {
		case user.User:
			if !person {
				e.ctx = rollbar.NewPersonContext(e.ctx, &rollbar.Person{
					Id:       v.Email,
					Username: v.DisplayName(),
					Email:    v.Email,
				})
				person = true
			}
		case error:
			if e.err == nil {
				e.err = v
			} else {
				rest = append(rest, v.Error())
			}
		case map[string]interface{}:
			for k, val := range v {
				e.extras[k] = val
			}
		default:
			rest = append(rest, arg)
		}
	}
	if len(rest) > 0 {
		e.extras["args"] = rest
	}
	return e
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	if l.report != nil {
		l.report(newEntry(level, msg, args))
	}
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
