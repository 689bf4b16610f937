package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zeehio/aves/pkg/acquire"
	"github.com/zeehio/aves/pkg/client"
	"github.com/zeehio/aves/pkg/middleware"
)

// viewer implements common.Consumer for one connected websocket.
// Frames land in a single-slot feed, so a browser that renders
// slowly only ever receives the newest frame.
type viewer struct {
	token string
	sock  *client.Client
	feed  *client.Feed
}

func (v *viewer) ID() string { return v.token }

func (v *viewer) Offer(frame []byte) { v.feed.Put(frame) }

// ViewerServer pushes published frames to any number of websocket
// viewers. The acquisition loop never waits for a viewer: frames
// flow one way, through the publisher's fan-out.
type ViewerServer struct {
	ctx      context.Context
	log      *logrus.Logger
	upgrader websocket.Upgrader
	subs     *client.ConsumerManager
	pub      *acquire.Publisher
	meta     Meta
	metrics  prometheus.Gatherer
}

type Config struct {
	Context   context.Context
	Publisher *acquire.Publisher
	Subs      *client.ConsumerManager
	Meta      Meta
	Logger    *logrus.Logger
	// Metrics, when set, exposes the registry under /metrics.
	Metrics prometheus.Gatherer
}

func NewViewerServer(cfg Config) *ViewerServer {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	return &ViewerServer{
		ctx: cfg.Context,
		log: cfg.Logger,
		// configured once here: handlers run concurrently and must
		// not mutate the shared upgrader
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs:    cfg.Subs,
		pub:     cfg.Publisher,
		meta:    cfg.Meta,
		metrics: cfg.Metrics,
	}
}

// Routes builds the HTTP surface: the websocket endpoint
// (optionally behind token auth), a liveness probe and metrics.
func (vs *ViewerServer) Routes(auth middleware.Authorizer) *http.ServeMux {
	mux := http.NewServeMux()
	ws := http.Handler(http.HandlerFunc(vs.SocketHandler))
	if auth != nil {
		ws = middleware.Middleware(auth, ws)
	}
	mux.Handle("/ws", ws)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if vs.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(vs.metrics, promhttp.HandlerOpts{}))
	}
	return mux
}

// SocketHandler upgrades the HTTP connection and streams frames
// until the viewer disconnects or the server context ends.
func (vs *ViewerServer) SocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := vs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		vs.log.WithError(err).Error("connection upgrade failed")
		return
	}
	v := &viewer{
		token: uuid.NewString(),
		sock:  client.New(conn),
		feed:  client.NewFeed(),
	}
	vs.log.WithField("viewer", v.token).Info("viewer connected")

	if err := vs.sendMeta(v); err != nil {
		vs.log.WithError(err).WithField("viewer", v.token).Error("cannot send meta")
		conn.Close()
		return
	}
	// seed a fresh viewer with the newest frame so it does not
	// wait a full cadence interval for its first data
	if latest := vs.pub.Latest(); latest != nil {
		v.Offer(latest)
	}
	vs.subs.Add(v)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case frame := <-v.feed.Frames():
				msg := SockResponse{MType: MsgFrame, Payload: frame}
				if err := v.sock.SendJSON(msg); err != nil {
					vs.log.WithError(err).WithField("viewer", v.token).
						Warn("frame push failed")
					return
				}
			case <-done:
				return
			}
		}
	}()
	defer func() {
		close(done)
		vs.subs.Drop(v.token)
		if err := conn.Close(); err != nil {
			vs.log.WithError(err).Debug("closing websocket")
		}
		vs.log.WithField("viewer", v.token).Info("viewer disconnected")
	}()

	for {
		select {
		case <-vs.ctx.Done():
			return
		default:
			_, message, readErr := conn.ReadMessage()
			if readErr != nil {
				return
			}
			vs.HandleSocketMessage(v, message)
		}
	}
}

func (vs *ViewerServer) HandleSocketMessage(v *viewer, payload []byte) {
	msg := client.Message{}
	if err := json.Unmarshal(payload, &msg); err != nil {
		vs.log.WithError(err).Warn("cannot decode viewer message")
		return
	}
	if msg.MType == client.MsgLatest {
		if latest := vs.pub.Latest(); latest != nil {
			v.Offer(latest)
		}
	}
}

func (vs *ViewerServer) sendMeta(v *viewer) error {
	payload, err := json.Marshal(vs.meta)
	if err != nil {
		return err
	}
	return v.sock.SendJSON(SockResponse{MType: MsgMeta, Payload: payload})
}
