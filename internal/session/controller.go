// Package session runs one spoken conversation: it pulls transcripts,
// drives a turn at a time through the LLM, speaks the replies and
// persists what it learned.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/kindred/internal/conversation"
	"github.com/kalambet/kindred/internal/emotion"
	"github.com/kalambet/kindred/internal/intent"
	"github.com/kalambet/kindred/internal/llm"
	"github.com/kalambet/kindred/internal/memory"
	"github.com/kalambet/kindred/internal/metrics"
	"github.com/kalambet/kindred/internal/monitor"
	"github.com/kalambet/kindred/internal/outbox"
	"github.com/kalambet/kindred/internal/questions"
)

const (
	greetingText     = "Hey. I'm here whenever you're ready."
	goodbyeText      = "Take care. I'll be here if you need me."
	continuePrompt   = "I'm still here if there's anything else on your mind."
	stillTherePrompt = "Take your time. I'm not going anywhere."
	turnFallback     = "I'm sorry, I didn't quite catch that. Could you try again?"
	medConfirmReply  = "Great, thanks for letting me know. I've noted that you took your %s."
)

// Speaker plays text aloud.
type Speaker interface {
	Say(text string, tone emotion.Tone)
	SayAndWait(ctx context.Context, text string, tone emotion.Tone) error
	IsSpeaking() bool
	Drain() int
}

// Listener yields finished transcriptions.
type Listener interface {
	Transcripts() <-chan string
	ClearQueue()
}

// Responder produces an assistant reply. *llm.Client satisfies it.
type Responder interface {
	Send(ctx context.Context, messages []llm.Message) llm.Response
}

type Options struct {
	HistorySize     int
	SilenceTimeout  time.Duration
	GreetingWait    time.Duration
	MonitorInterval time.Duration
	PollInterval    time.Duration
	DedupeWindow    time.Duration
	FollowUpPause   time.Duration
	SpeakTimeout    time.Duration
}

func (o *Options) defaults() {
	if o.HistorySize <= 0 {
		o.HistorySize = 40
	}
	if o.SilenceTimeout <= 0 {
		o.SilenceTimeout = 90 * time.Second
	}
	if o.GreetingWait <= 0 {
		o.GreetingWait = 15 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 200 * time.Millisecond
	}
	if o.DedupeWindow <= 0 {
		o.DedupeWindow = 2 * time.Second
	}
	if o.FollowUpPause < 0 {
		o.FollowUpPause = 0
	} else if o.FollowUpPause == 0 {
		o.FollowUpPause = 500 * time.Millisecond
	}
	if o.SpeakTimeout <= 0 {
		o.SpeakTimeout = 60 * time.Second
	}
}

type Deps struct {
	Store     *memory.Store
	LLM       Responder
	Speaker   Speaker
	Listener  Listener
	Outbox    *outbox.Queue
	Questions *questions.Generator
	Logger    *slog.Logger
}

// Controller owns one session's conversation state.
type Controller struct {
	id        string
	store     *memory.Store
	llm       Responder
	speaker   Speaker
	listener  Listener
	outbox    *outbox.Queue
	questions *questions.Generator
	monitor   *monitor.Monitor
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	history *conversation.History
	tracker emotion.Tracker
	sm      machine
	group   *errgroup.Group

	mu           sync.Mutex
	lastText     string
	lastTextAt   time.Time
	lastActivity time.Time
	silenceStage int
	heardUser    bool
	pendingMed   *memory.DueMedication

	userTurns      atomic.Int32
	assistantTurns atomic.Int32
}

func New(deps Deps, opts Options) *Controller {
	opts.defaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := ulid.Make().String()
	c := &Controller{
		id:        id,
		store:     deps.Store,
		llm:       deps.LLM,
		speaker:   deps.Speaker,
		listener:  deps.Listener,
		outbox:    deps.Outbox,
		questions: deps.Questions,
		opts:      opts,
		logger:    logger.With("session", id),
		now:       time.Now,
		history:   conversation.NewHistory(opts.HistorySize),
	}
	c.sm.onEnter = func(from, to State) {
		c.logger.Debug("state", "from", from, "to", to)
	}
	c.monitor = monitor.New(deps.Store, c, c, opts.MonitorInterval, c.logger)
	return c
}

func (c *Controller) ID() string                     { return c.id }
func (c *Controller) State() State                   { return c.sm.Current() }
func (c *Controller) History() *conversation.History { return c.history }
func (c *Controller) Monitor() *monitor.Monitor      { return c.monitor }
func (c *Controller) SetClock(now func() time.Time)  { c.now = now }

type endReason int

const (
	endCancelled endReason = iota
	endTermination
	endSilence
)

// Run greets the user, serves turns until a termination phrase, three
// silence breaches or ctx cancellation, then says goodbye and stores the
// session summary.
func (c *Controller) Run(ctx context.Context) error {
	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	started := c.now()
	c.logger.Info("session started")

	g, gctx := errgroup.WithContext(ctx)
	c.group = g
	workCtx, stopWork := context.WithCancel(gctx)
	defer stopWork()

	c.greet(gctx)
	g.Go(func() error { return c.monitor.Run(workCtx) })

	reason := c.loop(gctx, workCtx)

	if err := c.sm.To(Ending); err != nil {
		c.logger.Warn("entering ending state", "error", err)
	}
	stopWork()
	c.speaker.Drain()
	if reason != endCancelled {
		c.sayBounded(gctx, goodbyeText, emotion.ToneEncouragement, 10*time.Second)
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("session worker failed", "error", err)
	}

	c.saveSession(started)
	if reason == endCancelled {
		return ctx.Err()
	}
	return nil
}

func (c *Controller) loop(ctx, workCtx context.Context) endReason {
	tick := time.NewTicker(c.opts.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return endCancelled
		case text := <-c.listener.Transcripts():
			if c.onSpeech(workCtx, text) {
				c.logger.Info("termination phrase heard")
				return endTermination
			}
		case <-tick.C:
			if c.checkSilence(workCtx) {
				c.logger.Info("ending after repeated silence")
				return endSilence
			}
		}
	}
}

// onSpeech handles one transcript and reports whether the session
// should end.
func (c *Controller) onSpeech(ctx context.Context, raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		return false
	}
	now := c.now()

	c.mu.Lock()
	dup := c.lastText != "" && strings.EqualFold(text, c.lastText) && now.Sub(c.lastTextAt) < c.opts.DedupeWindow
	c.mu.Unlock()
	if dup {
		c.logger.Debug("dropping duplicate transcript", "text", text)
		return false
	}

	if intent.IsTermination(text) {
		return true
	}

	if st := c.sm.Current(); st != Listening {
		c.logger.Debug("dropping transcript while busy", "state", st, "text", text)
		return false
	}

	c.mu.Lock()
	c.lastText, c.lastTextAt = text, now
	c.heardUser = true
	pending := c.pendingMed != nil
	c.mu.Unlock()

	if intent.IsMedicationConfirmation(text, pending) {
		c.confirmMedication(ctx, text)
		return false
	}
	c.dispatch(ctx, text)
	return false
}

func (c *Controller) dispatch(ctx context.Context, text string) {
	if !c.sm.Swap(Listening, Processing) {
		return
	}
	c.listener.ClearQueue()
	prior := c.history.Messages()
	c.history.Add(conversation.RoleUser, text)
	c.userTurns.Add(1)
	c.touch()
	c.logger.Info("user", "text", text)

	c.group.Go(func() error {
		c.turn(ctx, text, prior)
		return nil
	})
}

// settle returns a busy controller to Listening. Ending is left alone.
func (c *Controller) settle() {
	if !c.sm.Swap(Speaking, Listening) {
		c.sm.Swap(Processing, Listening)
	}
}

// speakAside speaks a short line outside a turn.
func (c *Controller) speakAside(ctx context.Context, text string, tone emotion.Tone) {
	if !c.sm.Swap(Listening, Speaking) {
		c.speaker.Say(text, tone)
		return
	}
	c.group.Go(func() error {
		defer c.settle()
		c.sayBounded(ctx, text, tone, c.opts.SpeakTimeout)
		c.touch()
		return nil
	})
}

func (c *Controller) sayBounded(ctx context.Context, text string, tone emotion.Tone, d time.Duration) {
	sctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	if err := c.speaker.SayAndWait(sctx, text, tone); err != nil && ctx.Err() == nil {
		c.logger.Warn("speaking", "error", err)
	}
}

func (c *Controller) greet(ctx context.Context) {
	name := displayName(c.store.Profile())
	returning := len(c.store.RecentMemories(1)) > 0
	text := greeting(name, returning)

	if c.sm.Swap(Idle, Speaking) {
		c.sayBounded(ctx, text, emotion.ToneEncouragement, 10*time.Second)
	}
	if err := c.sm.To(Listening); err != nil {
		c.logger.Warn("entering listening state", "error", err)
	}
	c.touch()
}

func greeting(name string, returning bool) string {
	switch {
	case name != "" && returning:
		return fmt.Sprintf("Hey %s. Good to have you back. I'm here whenever you're ready.", name)
	case name != "":
		return fmt.Sprintf("Hey %s. I'm here whenever you're ready.", name)
	case returning:
		return "Hey, welcome back. I'm here whenever you're ready."
	}
	return greetingText
}

func displayName(p memory.Profile) string {
	for _, k := range []string{"preferred_name", "full_name", "name"} {
		if v := p.String(k); v != "" {
			return v
		}
	}
	return ""
}

// checkSilence escalates after quiet periods and reports whether the
// session should end.
func (c *Controller) checkSilence(ctx context.Context) bool {
	if c.sm.Current() != Listening || c.speaker.IsSpeaking() {
		return false
	}

	c.mu.Lock()
	limit := c.opts.SilenceTimeout
	if !c.heardUser && c.silenceStage == 0 {
		limit = c.opts.GreetingWait
	}
	now := c.now()
	if now.Sub(c.lastActivity) < limit {
		c.mu.Unlock()
		return false
	}
	c.silenceStage++
	stage := c.silenceStage
	c.lastActivity = now
	c.mu.Unlock()

	switch stage {
	case 1:
		c.speakAside(ctx, continuePrompt, emotion.ToneNeutral)
	case 2:
		c.speakAside(ctx, stillTherePrompt, emotion.ToneEncouragement)
	default:
		return true
	}
	return false
}

func (c *Controller) touch() {
	c.mu.Lock()
	c.lastActivity = c.now()
	c.mu.Unlock()
}

func (c *Controller) resetSilence() {
	c.mu.Lock()
	c.silenceStage = 0
	c.mu.Unlock()
}

func (c *Controller) confirmMedication(ctx context.Context, text string) {
	c.mu.Lock()
	due := c.pendingMed
	c.pendingMed = nil
	c.mu.Unlock()
	if due == nil {
		return
	}

	med := due.Medication
	if err := c.store.LogMedicationTaken(med.ID, due.ScheduledTime, "", "taken", "Confirmed via voice"); err != nil {
		c.logger.Warn("logging medication taken", "medication", med.ID, "error", err)
	}
	c.enqueue("medication", fmt.Sprintf("User confirmed taking medication %s at %s", med.Name, c.now().Format("15:04")))

	name := med.Name
	if name == "" {
		name = "medication"
	}
	reply := fmt.Sprintf(medConfirmReply, name)
	c.history.Add(conversation.RoleUser, text)
	c.history.Add(conversation.RoleAssistant, reply)
	c.userTurns.Add(1)
	c.assistantTurns.Add(1)
	c.touch()
	c.logger.Info("medication confirmed", "medication", med.Name, "slot", due.ScheduledTime)

	c.speakAside(ctx, reply, emotion.ToneEncouragement)
}

// PendingMedication returns the medication awaiting confirmation.
func (c *Controller) PendingMedication() (memory.DueMedication, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingMed == nil {
		return memory.DueMedication{}, false
	}
	return *c.pendingMed, true
}

// Busy reports whether a turn is running or anything is being said.
func (c *Controller) Busy() bool {
	switch c.sm.Current() {
	case Processing, Speaking, Ending:
		return true
	}
	return c.speaker.IsSpeaking()
}

// Announce speaks a proactive prompt and records it in the history.
func (c *Controller) Announce(ctx context.Context, p monitor.Prompt) {
	if p.Kind == monitor.KindMedication && p.Medication != nil {
		due := *p.Medication
		c.mu.Lock()
		c.pendingMed = &due
		c.mu.Unlock()
	}
	c.history.Add(conversation.RoleAssistant, p.Text)
	c.assistantTurns.Add(1)

	if c.sm.Swap(Listening, Speaking) {
		c.sayBounded(ctx, p.Text, p.Tone, c.opts.SpeakTimeout)
		c.settle()
	} else {
		c.speaker.Say(p.Text, p.Tone)
	}
	c.touch()
}

func (c *Controller) enqueue(kind, content string) {
	if err := c.outbox.Enqueue(kind, content); err != nil {
		c.logger.Warn("queueing memory sync", "kind", kind, "error", err)
	}
}

func (c *Controller) saveSession(started time.Time) {
	users := c.history.UserMessages()
	if summary := intent.SessionSummary(users); summary != "" {
		if err := c.store.AddMemory(summary, "assistant", "session_summary", "user_concerns", "emotional_patterns"); err != nil {
			c.logger.Warn("storing session summary", "error", err)
		}
		c.enqueue("session_summary", "Session summary: "+summary)
	}

	elapsed := c.now().Sub(started).Round(time.Second)
	details := fmt.Sprintf("Session %s lasted %s: %d user turns, %d assistant turns",
		c.id, elapsed, c.userTurns.Load(), c.assistantTurns.Load())
	if d := c.tracker.Dominant(); d != "neutral" {
		details += ", mostly " + d
	}
	if err := c.store.LogEvent("session_end", details, ""); err != nil {
		c.logger.Warn("logging session end", "error", err)
	}
	c.logger.Info("session ended", "duration", elapsed,
		"user_turns", c.userTurns.Load(), "assistant_turns", c.assistantTurns.Load())
}
