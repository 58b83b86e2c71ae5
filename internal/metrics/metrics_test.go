package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiznufi-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerRecordsQuizMetrics(t *testing.T) {
	Convey("Given a metrics manager on its own registry", t, func() {
		m := NewManager()

		Convey("When sessions start and complete", func() {
			m.SessionStarted("Yahlēh")
			m.SessionStarted("Yahlēh")
			m.SessionCompleted(33.33)

			Convey("Then the counters reflect them", func() {
				So(testutil.ToFloat64(m.sessionsStarted.WithLabelValues("Yahlēh")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.sessionsCompleted), ShouldEqual, 1)
			})
		})

		Convey("When answers resolve", func() {
			m.AnswerRecorded(domain.OutcomeCorrect)
			m.AnswerRecorded(domain.OutcomeTimedOut)
			m.AnswerRecorded(domain.OutcomeTimedOut)

			Convey("Then they are counted by outcome", func() {
				So(testutil.ToFloat64(m.answers.WithLabelValues(string(domain.OutcomeCorrect))), ShouldEqual, 1)
				So(testutil.ToFloat64(m.answers.WithLabelValues(string(domain.OutcomeTimedOut))), ShouldEqual, 2)
			})
		})

		Convey("When backends fail", func() {
			m.PoolFetched(time.Millisecond, errors.New("down"))
			m.PoolFetched(time.Millisecond, nil)
			m.SubmissionFailed()
			m.LeaderboardFetchFailed()

			Convey("Then the error counters move", func() {
				So(testutil.ToFloat64(m.poolFetchErrors), ShouldEqual, 1)
				So(testutil.ToFloat64(m.submissionErrors), ShouldEqual, 1)
				So(testutil.ToFloat64(m.leaderboardErrors), ShouldEqual, 1)
			})
		})
	})
}

func TestManagerHTTP(t *testing.T) {
	Convey("Given a chi router wrapped by the metrics middleware", t, func() {
		m := NewManager(WithNamespace("test"))
		r := chi.NewRouter()
		r.Use(m.Middleware)
		r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		r.Method(http.MethodGet, "/metrics", m.Handler())

		Convey("When a request hits a parameterised route", func() {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))

			Convey("Then it is labelled by the route pattern", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/sessions/{id}", "GET", "404")), ShouldEqual, 1)
			})

			Convey("And the metrics endpoint exposes it", func() {
				rec := httptest.NewRecorder()
				r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.Contains(rec.Body.String(), "test_http_requests_total"), ShouldBeTrue)
			})
		})
	})
}
