package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	eventsvc "github.com/trezcool/shule/services/events"
	"github.com/trezcool/shule/storage/cache"
	"github.com/trezcool/shule/storage/sheets"
	"github.com/trezcool/shule/storage/sheets/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(msg string, _ ...interface{}) {
	log.Fatal(msg)
}

type testApp struct {
	Server
	conf    *core.Config
	auth    *Authenticator
	backend *inmemsheets.Backend
	mailSvc *emailsvc.ConsoleServiceMock
}

var (
	annUsr   = []string{"ann@school.io", "Ann", "student", "TRUE"}
	bobUsr   = []string{"bob@school.io", "", "student", "yes"}
	carlUsr  = []string{"carl@school.io", "Carl", "student", "FALSE"}
	adminUsr = []string{"admin@school.io", "Admin", "admin", "1"}

	testRows = [][]string{
		{"math", "1", "1+1?", "1", "2", "3", "4", "b", "", ""},
		{"math", "2", "2+2?", "4", "5", "6", "7", "a", "senior", ""},
		{"Математика", "3", "Prove it", "", "", "", "", "", "junior", "open"},
		{"physics", "1", "Explain gravity", "", "", "", "", "", "", ""},
		{"chemistry", "1", "H2O?", "water", "", "", "", "a", "", ""},
		{"", "9", "orphan", "", "", "", "", "", "", ""},
	}
)

func setup(t *testing.T) testApp {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.AdminEmails = []string{"Admin <admin@school.io>"}
	conf.Server.DisableRequestLogs = true
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.SignupTokenDelta = 10 * time.Minute
	conf.Quiz.Subjects = core.ParseSubjects([]string{"math:Математика", "physics:Физика", "chemistry:Химия"})

	logger := nopLogger{}

	// set up store & repos
	backend := inmemsheets.NewBackend()
	backend.Seed(sheets.TableUsers, sheets.Schemas[sheets.TableUsers], annUsr, bobUsr, carlUsr, adminUsr)
	backend.Seed(sheets.TableTests, append([][]string{sheets.Schemas[sheets.TableTests]}, testRows...)...)
	store := sheets.NewStore(sheets.Options{
		Backend:     backend,
		RetryDelays: []time.Duration{0, 0, 0},
		Logger:      logger,
	})
	claims := cache.NewMemoryStore()

	// set up services
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	events := eventsvc.NewLogPublisher(logger)

	usrSvc := user.NewService(user.Options{
		Repo:        sheets.NewUserRepository(store),
		Signups:     sheets.NewSignupRepository(store),
		Validate:    validate,
		MailSvc:     mailSvc,
		Events:      events,
		Logger:      logger,
		AdminEmails: conf.AdminEmails,
	})
	quizSvc := quiz.NewService(quiz.ServiceOptions{
		Questions:   sheets.NewQuestionRepository(store),
		Results:     sheets.NewResultRepository(store),
		Submissions: claims,
		Subjects:    conf.Quiz.Subjects,
		TTL:         conf.Quiz.SubmissionTTL,
		Validate:    validate,
		Events:      events,
		Logger:      logger,
	})

	// set up server
	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		QuizSvc:    quizSvc,
		Claims:     claims,
		Validate:   validate,
		Translator: translator,
	})
	t.Cleanup(func() { _ = srv.Close() })

	return testApp{
		Server:  srv,
		conf:    conf,
		auth:    NewAuthenticator(conf),
		backend: backend,
		mailSvc: mailSvc,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

// do runs one request against app and returns the recorder.
func (app testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

// login returns the session token of `email`, whatever its state.
func (app testApp) login(t *testing.T, email string) string {
	rec := app.do(http.MethodPost, "/v1/login", "", marshallObj(t, user.LoginRequest{Email: email}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res LoginResponse
	decode(t, rec, &res)
	return res.Token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
