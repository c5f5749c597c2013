package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/evaldocente/backend/apps/api/echo"
	"github.com/evaldocente/backend/core"
	"github.com/evaldocente/backend/core/course"
	"github.com/evaldocente/backend/core/evaluation"
	"github.com/evaldocente/backend/core/form"
	"github.com/evaldocente/backend/core/professor"
	"github.com/evaldocente/backend/core/question"
	"github.com/evaldocente/backend/core/user"
	emailsvc "github.com/evaldocente/backend/services/email"
	logsvc "github.com/evaldocente/backend/services/logger"
	inmemdb "github.com/evaldocente/backend/storage/database/inmem"
	"github.com/evaldocente/backend/testutil"
)

var (
	errMissingToken    = httpErr{Error: "missing or malformed jwt"}
	errPermDenied      = httpErr{Error: "permission denied"}
	errFieldRequired   = "this field is required"
	errFieldBlank      = "this field may not be blank"
	errInvalidPK       = func(resource string) string { return "invalid pk - " + resource + " does not exist" }
	errResourceMissing = func(resource string) httpErr { return httpErr{Error: resource + " not found"} }
)

type testApp struct {
	conf   *core.Config
	server *echoapi.Server
	mail   *emailsvc.ConsoleServiceMock

	userRepo user.Repository
	profRepo professor.Repository
	crsRepo  course.Repository
	qRepo    question.Repository
	formRepo form.Repository
	evalRepo evaluation.Repository

	// services, to build expected payloads
	profSvc professor.ServiceInterface
	crsSvc  course.ServiceInterface
	formSvc form.ServiceInterface
	evalSvc evaluation.ServiceInterface

	admin   user.User
	student user.User
	other   user.User
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		AppName:         "EvalDocente",
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:3000",
		TestMode:        true,
	}
	conf.Server.DisableReqLogs = true
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = time.Hour

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	core.ParseEmailTemplates(conf, logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	question.InitValidators(validate, translator)

	db := inmemdb.Open()
	app := &testApp{
		conf:     conf,
		mail:     emailsvc.NewConsoleServiceMock(conf, logger),
		userRepo: inmemdb.NewUserRepository(db),
		profRepo: inmemdb.NewProfessorRepository(db),
		crsRepo:  inmemdb.NewCourseRepository(db),
		qRepo:    inmemdb.NewQuestionRepository(db),
		formRepo: inmemdb.NewFormRepository(db),
		evalRepo: inmemdb.NewEvaluationRepository(db),
	}

	usrSvc := user.NewService(app.userRepo)
	profSvc := professor.NewService(app.profRepo, usrSvc)
	crsSvc := course.NewService(app.crsRepo, profSvc)
	qSvc := question.NewService(app.qRepo)
	formSvc := form.NewService(app.formRepo, qSvc)
	evalSvc := evaluation.NewService(app.evalRepo, usrSvc, profSvc, crsSvc, formSvc, qSvc, app.mail)
	app.profSvc, app.crsSvc, app.formSvc, app.evalSvc = profSvc, crsSvc, formSvc, evalSvc

	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		ProfessorSvc:  profSvc,
		CourseSvc:     crsSvc,
		QuestionSvc:   qSvc,
		FormSvc:       formSvc,
		EvaluationSvc: evalSvc,
	})

	app.admin = testutil.CreateUser(t, app.userRepo, "admin", "admin@example.com", "", []string{user.RoleAdmin}, true)
	app.student = testutil.CreateUser(t, app.userRepo, "student", "student@example.com", "", []string{user.RoleStudent}, true)
	app.other = testutil.CreateUser(t, app.userRepo, "other", "other@example.com", "", []string{user.RoleStudent}, true)
	return app
}

// do serves req and returns the recorded response.
func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.server.ServeHTTP(rec, req)
	return rec
}

// run serves every test case and checks the response code and data.
func (app *testApp) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := app.do(newAuthRequest(method, tt.path, tt.token, tt.body...))
			checkCodeAndData(t, tt, rec)
		})
	}
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(app.conf, echoapi.GetUserClaims(app.conf, usr))
	require.NoError(t, err)
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     [][]byte
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

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	return marshalObj(t, objs)
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
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		if rec.Body.Len() != 0 {
			t.Errorf("failed! data = %v; want no data", rec.Body.String())
		}
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

// decode unmarshals the response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func fieldErrs(kv ...string) map[string]string {
	errs := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		errs[kv[i]] = kv[i+1]
	}
	return errs
}

func body(t *testing.T, obj interface{}) [][]byte {
	return [][]byte{marshalObj(t, obj)}
}
