package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/channwl/DPT-scroring-program/internal/dto"
)

const progressSendBufferSize = 16

// ProgressPublisher lets batch grading report per-student progress without
// caring who is listening. Events are advisory; publishing never fails the
// grading run.
type ProgressPublisher interface {
	Publish(ctx context.Context, event dto.ProgressEvent)
}

// ProgressService fans batch progress events out to websocket watchers. Redis
// pub/sub and NATS bridge events between nodes; both are optional and a nil
// client degrades to in-process delivery only.
type ProgressService interface {
	ProgressPublisher
	ServeConnection(conn *websocket.Conn, problemKey string)
	Start(ctx context.Context)
}

type progressService struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	hub         *progressHub
	nodeID      string
}

type progressHub struct {
	mu       sync.RWMutex
	watchers map[string]map[*progressWatcher]struct{}
	log      zerolog.Logger
}

type progressWatcher struct {
	conn       *websocket.Conn
	send       chan dto.ProgressEvent
	problemKey string
	closed     chan struct{}
	once       sync.Once
}

type progressEnvelope struct {
	Source string            `json:"source"`
	Event  dto.ProgressEvent `json:"event"`
	SentAt time.Time         `json:"sent_at"`
}

// NewProgressService creates the batch progress fan-out service.
func NewProgressService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ProgressService {
	streamChannel := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":progress"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".progress"
	}

	return &progressService{
		redis:       redisClient,
		redisStream: streamChannel,
		nats:        natsConn,
		natsSubject: natsSubject,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		hub: &progressHub{
			watchers: make(map[string]map[*progressWatcher]struct{}),
			log:      logger.With().Str("component", "progress_hub").Logger(),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *progressService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *progressService) Publish(ctx context.Context, event dto.ProgressEvent) {
	s.hub.broadcast(event.ProblemKey, event)

	envelope := progressEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal progress event")
		return
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish progress event to redis")
		}
	}
	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish progress event to nats")
		}
	}
}

// ServeConnection streams progress events for one problem until the watcher
// disconnects. The stream is write-only; client frames are drained and
// discarded.
func (s *progressService) ServeConnection(conn *websocket.Conn, problemKey string) {
	watcher := &progressWatcher{
		conn:       conn,
		send:       make(chan dto.ProgressEvent, progressSendBufferSize),
		problemKey: problemKey,
		closed:     make(chan struct{}),
	}

	s.hub.register(watcher)
	defer s.hub.unregister(watcher)

	go func() {
		defer watcher.close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-watcher.send:
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Debug().Err(err).Msg("progress write loop terminated")
				watcher.close()
				return
			}
		case <-time.After(30 * time.Second):
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				watcher.close()
				return
			}
		case <-watcher.closed:
			return
		}
	}
}

func (s *progressService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("progress redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *progressService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "dpt-progress", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats progress subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain progress nats subscription")
		}
	}()
}

func (s *progressService) handleEvent(data []byte) {
	var envelope progressEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid progress event")
		return
	}
	if envelope.Source == s.nodeID {
		return
	}
	s.hub.broadcast(envelope.Event.ProblemKey, envelope.Event)
}

func (h *progressHub) register(watcher *progressWatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.watchers[watcher.problemKey]; !exists {
		h.watchers[watcher.problemKey] = make(map[*progressWatcher]struct{})
	}
	h.watchers[watcher.problemKey][watcher] = struct{}{}
	h.log.Debug().Str("problem_key", watcher.problemKey).Msg("progress watcher connected")
}

func (h *progressHub) unregister(watcher *progressWatcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watchers, ok := h.watchers[watcher.problemKey]; ok {
		delete(watchers, watcher)
		if len(watchers) == 0 {
			delete(h.watchers, watcher.problemKey)
		}
	}
	h.log.Debug().Str("problem_key", watcher.problemKey).Msg("progress watcher disconnected")
}

func (h *progressHub) broadcast(problemKey string, event dto.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for watcher := range h.watchers[problemKey] {
		select {
		case watcher.send <- event:
		default:
			h.log.Warn().Str("problem_key", problemKey).Msg("dropping progress event for slow watcher")
		}
	}
}

func (w *progressWatcher) close() {
	w.once.Do(func() {
		close(w.closed)
		_ = w.conn.Close()
	})
}
