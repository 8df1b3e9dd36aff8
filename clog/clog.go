/*
Package clog provides Context with logging information.
*/
package clog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// unique type to prevent assignment.
type clogContextKeyT struct{}

var clogContextKey = clogContextKeyT{}

const (
	// standard keys
	gameID  = "gameID"
	account = "account"
	txHash  = "txHash"
)

// Verbose is a boolean type that implements Infof (like Printf) etc.
// See the documentation of V for more information.
type Verbose bool

var stdKeys map[string]bool
var stdKeysOrder = []string{gameID, account, txHash}

func init() {
	stdKeys = make(map[string]bool)
	for _, key := range stdKeysOrder {
		stdKeys[key] = true
	}
}

func V(level glog.Level) Verbose {
	return Verbose(bool(glog.V(level)))
}

type values struct {
	mu    sync.RWMutex
	vals  map[string]string
	order []string
}

func newValues() *values {
	return &values{
		vals: make(map[string]string),
	}
}

func (v *values) set(key, val string) {
	if _, ok := v.vals[key]; !ok && !stdKeys[key] {
		v.order = append(v.order, key)
	}
	v.vals[key] = val
}

// Clone creates new context with parentCtx as parent and
// logging details from logCtx
func Clone(parentCtx, logCtx context.Context) context.Context {
	cmap, _ := logCtx.Value(clogContextKey).(*values)
	newCmap := newValues()
	if cmap != nil {
		cmap.mu.RLock()
		for k, v := range cmap.vals {
			newCmap.vals[k] = v
		}
		newCmap.order = append(newCmap.order, cmap.order...)
		cmap.mu.RUnlock()
	}
	return context.WithValue(parentCtx, clogContextKey, newCmap)
}

func AddGameID(ctx context.Context, val string) context.Context {
	return AddVal(ctx, gameID, val)
}

func AddAccount(ctx context.Context, val string) context.Context {
	return AddVal(ctx, account, val)
}

func AddTxHash(ctx context.Context, val string) context.Context {
	return AddVal(ctx, txHash, val)
}

// AddVal attaches key=val to every message logged with the returned context.
// The value map is shared by contexts derived from ctx; use Clone to fork it.
func AddVal(ctx context.Context, key, val string) context.Context {
	cmap, _ := ctx.Value(clogContextKey).(*values)
	if cmap == nil {
		cmap = newValues()
		ctx = context.WithValue(ctx, clogContextKey, cmap)
	}
	cmap.mu.Lock()
	cmap.set(key, val)
	cmap.mu.Unlock()
	return ctx
}

func Warningf(ctx context.Context, format string, args ...interface{}) {
	glog.WarningDepth(1, formatMessage(ctx, format, args...))
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	glog.ErrorDepth(1, formatMessage(ctx, format, args...))
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	infof(ctx, format, args...)
}

func infof(ctx context.Context, format string, args ...interface{}) {
	glog.InfoDepth(2, formatMessage(ctx, format, args...))
}

// Infof is equivalent to the global Infof function, guarded by the value of v.
// See the documentation of V for usage.
func (v Verbose) Infof(ctx context.Context, format string, args ...interface{}) {
	if v {
		infof(ctx, format, args...)
	}
}

func messageFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	cmap, _ := ctx.Value(clogContextKey).(*values)
	if cmap == nil {
		return ""
	}
	cmap.mu.RLock()
	defer cmap.mu.RUnlock()
	parts := make([]string, 0, len(cmap.vals))
	for _, key := range stdKeysOrder {
		if val, ok := cmap.vals[key]; ok {
			parts = append(parts, key+"="+val)
		}
	}
	for _, key := range cmap.order {
		parts = append(parts, key+"="+cmap.vals[key])
	}
	return strings.Join(parts, " ")
}

func formatMessage(ctx context.Context, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	mfc := messageFromContext(ctx)
	if mfc != "" {
		msg = mfc + " " + msg
	}
	return msg
}
