package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kalambet/kindred/internal/composer"
	"github.com/kalambet/kindred/internal/conversation"
	"github.com/kalambet/kindred/internal/emotion"
	"github.com/kalambet/kindred/internal/intent"
	"github.com/kalambet/kindred/internal/llm"
)

const promptMemories = 8

// turn answers one user utterance. prior is the history before it.
func (c *Controller) turn(ctx context.Context, text string, prior []conversation.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("turn panicked", "panic", r)
		}
		c.touch()
		c.resetSilence()
		c.settle()
	}()

	cues := emotion.Analyze(text)
	tone := emotion.ToneFor(cues)
	if emotion.IsCrisis(text) {
		c.logger.Warn("crisis language detected")
		tone = emotion.ToneDistress
	}
	c.tracker.Record(cues)
	if tone != emotion.ToneNeutral {
		c.logger.Info("emotion", "summary", emotion.Summary(cues), "tone", tone)
	}

	c.learnName(text)
	confirmation := c.extractReminder(text)

	system := composer.Build(c.promptContext(tone))
	resp := c.llm.Send(ctx, llm.BuildMessages(system, prior, text))
	if ctx.Err() != nil {
		return
	}

	if !resp.Success {
		c.logger.Warn("no reply from any provider", "error", resp.Error)
		c.say(ctx, turnFallback, emotion.ToneNeutral)
		return
	}

	reply := resp.Text
	if confirmation != "" {
		reply += " " + confirmation
	}
	c.history.Add(conversation.RoleAssistant, reply)
	c.assistantTurns.Add(1)
	c.logger.Info("assistant", "text", reply, "provider", resp.Provider, "latency", resp.Latency)

	if n := c.speaker.Drain(); n > 0 {
		c.logger.Debug("dropped stale speech", "count", n)
	}
	c.say(ctx, reply, tone)

	c.storePreferences(text)
	if err := c.store.LogExchange(string(tone), text, reply, string(intent.Analyze(text))); err != nil {
		c.logger.Warn("logging exchange", "error", err)
	}
	if cues.Primary != "neutral" {
		if err := c.store.LogMood(cues.Primary, cues.Intensity, emotion.Summary(cues)); err != nil {
			c.logger.Warn("logging mood", "error", err)
		}
	}

	c.followUp(ctx, cues, tone)
}

// say speaks inside a turn, moving Processing to Speaking first.
func (c *Controller) say(ctx context.Context, text string, tone emotion.Tone) {
	c.sm.Swap(Processing, Speaking)
	c.sayBounded(ctx, text, tone, c.opts.SpeakTimeout)
}

func (c *Controller) followUp(ctx context.Context, cues emotion.Cues, tone emotion.Tone) {
	if c.questions == nil || !emotion.ShouldAskFollowUp(cues) {
		return
	}
	if !c.questions.ShouldAsk(c.history.Messages()) {
		return
	}
	q, ok := c.questions.Next(tone)
	if !ok {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(c.opts.FollowUpPause):
	}

	qtone := emotion.ToneEncouragement
	if tone == emotion.ToneDistress {
		qtone = emotion.ToneNeutral
	}
	c.history.Add(conversation.RoleAssistant, q)
	c.assistantTurns.Add(1)
	c.logger.Info("follow-up question", "text", q)
	c.say(ctx, q, qtone)
}

func (c *Controller) promptContext(tone emotion.Tone) composer.Context {
	mems := c.store.RecentMemories(promptMemories)
	slices.Reverse(mems)
	return composer.Context{
		Profile:       c.store.Profile(),
		Medications:   c.store.LoadMedications().Medications,
		Reminders:     c.store.ActiveReminders(),
		Memories:      mems,
		Preferences:   c.store.Preferences(),
		RecentReplies: c.history.LastAssistantReplies(3),
		Tone:          tone,
	}
}

func (c *Controller) learnName(text string) {
	name, ok := intent.ExtractName(text)
	if !ok || name == c.store.Profile().String("preferred_name") {
		return
	}
	if err := c.store.UpdateProfile("preferred_name", name); err != nil {
		c.logger.Warn("saving name", "error", err)
	}
	if err := c.store.SetPreference("preferred_name", name); err != nil {
		c.logger.Warn("saving name preference", "error", err)
	}
	c.enqueue("name", "User's preferred name is "+name)
	c.logger.Info("learned name", "name", name)
}

// extractReminder stores a reminder request and returns the sentence
// confirming it, or "".
func (c *Controller) extractReminder(text string) string {
	req, ok := intent.ParseReminder(text)
	if !ok {
		return ""
	}
	id, err := c.store.AddReminder(req.Content, req.RemindTime, req.Recurring, "")
	if err != nil {
		c.logger.Warn("storing reminder", "error", err)
		return ""
	}
	c.enqueue("reminder", req.Summary())
	c.logger.Info("stored reminder", "id", id, "content", req.Content, "time", req.RemindTime)
	return reminderConfirmation(req)
}

func reminderConfirmation(req intent.ReminderRequest) string {
	switch {
	case req.RemindTime != "" && req.Recurring:
		return fmt.Sprintf("I'll remind you every day at %s.", req.RemindTime)
	case req.RemindTime != "":
		return fmt.Sprintf("I'll remind you at %s.", req.RemindTime)
	}
	return "I've made a note of that reminder."
}

func (c *Controller) storePreferences(text string) {
	for _, hit := range intent.DetectPreferences(text) {
		if err := c.store.AddMemory(text, "user", hit.Category, "auto_extracted"); err != nil {
			c.logger.Warn("storing preference", "category", hit.Category, "error", err)
			continue
		}
		c.enqueue("preference", hit.MemoryText(text))
	}
}
