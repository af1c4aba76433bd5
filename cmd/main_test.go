package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/cragrank/internal/adapters/http/ws"
	"github.com/okian/cragrank/internal/adapters/repository"
	app "github.com/okian/cragrank/internal/app"
	"github.com/okian/cragrank/internal/domain/model"
	"github.com/okian/cragrank/internal/domain/ranking"
	"github.com/okian/cragrank/pkg/logger"
)

const exampleCompetitions = "../configs/competition.example.yaml"

// startStack wires the store, hub, service and mux the way main does.
func startStack(ctx context.Context) (*httptest.Server, *app.Service) {
	convey.So(logger.Init(), convey.ShouldBeNil)

	store := repository.NewMemoryStore()
	convey.So(loadCompetitions(ctx, store, exampleCompetitions), convey.ShouldBeNil)

	var svc *app.Service
	hub := ws.NewHub(ws.WithInitialState(func(ctx context.Context, room string) (any, bool) {
		return svc.RoomState(ctx, room)
	}))
	go hub.Run(ctx)

	svc = app.New(app.WithStore(store), app.WithPublisher(hub), app.WithWorkerCount(2))
	convey.So(svc.Start(ctx), convey.ShouldBeNil)

	return httptest.NewServer(newMux(ctx, svc, hub)), svc
}

func TestMainStack(t *testing.T) {
	convey.Convey("Given the wired application", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		srv, svc := startStack(ctx)
		defer srv.Close()
		defer func() { _ = svc.Stop(context.Background()) }()

		convey.Convey("When the example competition is loaded", func() {
			resp, err := http.Get(srv.URL + "/groups/200/rankings") //nolint:noctx // test
			convey.So(err, convey.ShouldBeNil)
			var snap ranking.Snapshot
			convey.So(json.NewDecoder(resp.Body).Decode(&snap), convey.ShouldBeNil)
			_ = resp.Body.Close()

			convey.Convey("Then the final group is ranked at startup", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(snap.Boulders, convey.ShouldHaveLength, 3)
			})
		})

		convey.Convey("When a subscriber watches the final and a judge records a flash", func() {
			wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room=" + ws.GroupRoom(200)
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = conn.Close() }()
			_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

			var initial ws.Update
			convey.So(conn.ReadJSON(&initial), convey.ShouldBeNil)

			resp, err := http.Post(srv.URL+"/rounds/20/groups/200/climbers/3/results", "application/json", //nolint:noctx // test
				strings.NewReader(`{"submissionId":"flash-3","boulderId":2001,"try":true,"top":true}`))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()

			var update struct {
				Room     string           `json:"room"`
				Rankings ranking.Snapshot `json:"rankings"`
			}
			convey.So(conn.ReadJSON(&update), convey.ShouldBeNil)

			convey.Convey("Then the submission is accepted and the update is pushed", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
				convey.So(initial.Room, convey.ShouldEqual, ws.GroupRoom(200))
				convey.So(update.Room, convey.ShouldEqual, ws.GroupRoom(200))
				convey.So(update.Rankings.Rankings[0].ClimberID, convey.ShouldEqual, model.ClimberID(3))
				convey.So(update.Rankings.Rankings[0].Rank, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the operational endpoints are hit", func() {
			for _, path := range []string{"/healthz", "/stats", "/metrics", "/openapi.yaml", "/api-docs"} {
				resp, err := http.Get(srv.URL + path) //nolint:noctx // test
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		svc := app.New()

		convey.Convey("Then one pass of each does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loops return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestLoadCompetitionsLogsOncePerCompetition(t *testing.T) {
	convey.Convey("Given a store logging to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(logger.Init(logger.WithOutput(&buf)), convey.ShouldBeNil)
		store := repository.NewMemoryStore(repository.WithLogger(logger.Named("store")))

		convey.Convey("When the example competitions are loaded", func() {
			convey.So(loadCompetitions(context.Background(), store, exampleCompetitions), convey.ShouldBeNil)

			convey.Convey("Then each competition is logged once", func() {
				loaded := len(store.Competitions(context.Background()))
				convey.So(loaded, convey.ShouldBeGreaterThan, 0)
				convey.So(strings.Count(buf.String(), "competition loaded"), convey.ShouldEqual, loaded)
			})
		})
	})
}

func TestLoadCompetitionsErrors(t *testing.T) {
	convey.Convey("Given a store", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		ctx := context.Background()
		store := repository.NewMemoryStore()

		convey.Convey("When the file is missing", func() {
			err := loadCompetitions(ctx, store, "does-not-exist.yaml")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the same file is loaded twice", func() {
			convey.So(loadCompetitions(ctx, store, exampleCompetitions), convey.ShouldBeNil)
			err := loadCompetitions(ctx, store, exampleCompetitions)
			convey.So(errors.Is(err, repository.ErrDuplicateID), convey.ShouldBeTrue)
		})
	})
}
