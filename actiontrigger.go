package via

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-via/via/h"
)

// actionTrigger represents a trigger to an event handler fn.
type actionTrigger struct {
	id string
}

// ID returns the action id referenced in the trigger URL. Tab actions get
// random ids; scoped actions keep their developer-supplied name, stable
// across every client.
func (a *actionTrigger) ID() string { return a.id }

// ActionTriggerOption configures behavior of action triggers.
type ActionTriggerOption interface {
	apply(*triggerOpts)
}

type triggerOpts struct {
	hasSignal      bool
	signalID       string
	value          string
	window         bool
	preventDefault bool
}

type withWindowOpt struct{}

func (o withWindowOpt) apply(opts *triggerOpts) { opts.window = true }

// WithWindow scopes the event listener to the window instead of the element.
func WithWindow() ActionTriggerOption { return withWindowOpt{} }

type withPreventDefaultOpt struct{}

func (o withPreventDefaultOpt) apply(opts *triggerOpts) { opts.preventDefault = true }

// WithPreventDefault calls evt.preventDefault() before triggering the action.
func WithPreventDefault() ActionTriggerOption { return withPreventDefaultOpt{} }

type withSignalOpt struct {
	signalID string
	value    string
}

func (o withSignalOpt) apply(opts *triggerOpts) {
	opts.hasSignal = true
	opts.signalID = o.signalID
	opts.value = o.value
}

// WithSignal sets a signal value before triggering the action.
func WithSignal(sig *Signal, value string) ActionTriggerOption {
	return withSignalOpt{
		signalID: sig.ID(),
		value:    fmt.Sprintf("'%s'", value),
	}
}

// WithSignalInt sets a signal to an int value before triggering the action.
func WithSignalInt(sig *Signal, value int) ActionTriggerOption {
	return withSignalOpt{
		signalID: sig.ID(),
		value:    strconv.Itoa(value),
	}
}

func buildOnExpr(base string, opts *triggerOpts) string {
	expr := base
	if opts.hasSignal {
		expr = fmt.Sprintf("$%s=%s;%s", opts.signalID, opts.value, expr)
	}
	if opts.preventDefault {
		expr = "evt.preventDefault();" + expr
	}
	return expr
}

func applyOptions(options ...ActionTriggerOption) triggerOpts {
	var opts triggerOpts
	for _, opt := range options {
		opt.apply(&opts)
	}
	return opts
}

func actionURL(id string) string {
	return fmt.Sprintf("@get('/_action/%s')", id)
}

// OnClick returns a via.h DOM attribute that triggers on click. It can be added
// to element nodes in a view.
func (a *actionTrigger) OnClick(options ...ActionTriggerOption) h.H {
	opts := applyOptions(options...)
	return h.Data("on:click", buildOnExpr(actionURL(a.id), &opts))
}

// OnChange returns a via.h DOM attribute that triggers on input change. It can be added
// to element nodes in a view.
func (a *actionTrigger) OnChange(options ...ActionTriggerOption) h.H {
	opts := applyOptions(options...)
	return h.Data("on:change__debounce.200ms", buildOnExpr(actionURL(a.id), &opts))
}

// OnKeyDown returns a via.h DOM attribute that triggers when a key is pressed.
// key: optional, see https://developer.mozilla.org/en-US/docs/Web/API/KeyboardEvent/key
// Example: OnKeyDown("Enter")
func (a *actionTrigger) OnKeyDown(key string, options ...ActionTriggerOption) h.H {
	opts := applyOptions(options...)
	var condition string
	if key != "" {
		condition = fmt.Sprintf("evt.key==='%s' &&", key)
	}
	attrName := "on:keydown"
	if opts.window {
		attrName = "on:keydown__window"
	}
	return h.Data(attrName, fmt.Sprintf("%s%s", condition, buildOnExpr(actionURL(a.id), &opts)))
}

// KeyBinding pairs a key name and its action with trigger options for use
// with OnKeyDownMap.
type KeyBinding struct {
	Key     string
	Action  *actionTrigger
	Options []ActionTriggerOption
}

// KeyBind creates a KeyBinding for use with OnKeyDownMap.
func KeyBind(key string, action *actionTrigger, options ...ActionTriggerOption) KeyBinding {
	return KeyBinding{Key: key, Action: action, Options: options}
}

// OnKeyDownMap combines multiple key bindings into a single
// data-on:keydown__window attribute using a JS ternary chain. This avoids
// HTML attribute deduplication issues that occur when multiple OnKeyDown
// calls target the same element.
func OnKeyDownMap(bindings ...KeyBinding) h.H {
	if len(bindings) == 0 {
		return nil
	}
	var parts []string
	for _, b := range bindings {
		opts := applyOptions(b.Options...)
		expr := buildOnExpr(actionURL(b.Action.id), &opts)
		parts = append(parts, fmt.Sprintf("evt.key==='%s' ? (%s)", b.Key, expr))
	}
	combined := strings.Join(parts, " : ") + " : void 0"
	return h.Data("on:keydown__window", combined)
}
