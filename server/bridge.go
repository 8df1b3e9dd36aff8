package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/notify"
	"github.com/wordchain/wordreward/wallet"
)

const (
	bridgeSendBuffer   = 32
	bridgeWriteTimeout = 5 * time.Second

	// Wallet error code for a request the user declined (EIP-1193).
	userRejectedCode = 4001
)

var errPageDetached = errors.New("page detached")

// Message types exchanged with the page.
const (
	msgHello           = "hello"
	msgRequest         = "request"
	msgResponse        = "response"
	msgAccountsChanged = "accountsChanged"
	msgChainChanged    = "chainChanged"
	msgDisconnect      = "disconnect"
	msgNotify          = "notify"
)

type pageMessage struct {
	Type     string              `json:"type"`
	ID       uint64              `json:"id,omitempty"`
	Method   string              `json:"method,omitempty"`
	Wallet   bool                `json:"wallet,omitempty"`
	Result   json.RawMessage     `json:"result,omitempty"`
	Error    *walletError        `json:"error,omitempty"`
	Accounts []ethcommon.Address `json:"accounts,omitempty"`
	ChainID  *hexutil.Big        `json:"chainId,omitempty"`
	Kind     string              `json:"kind,omitempty"`
	Title    string              `json:"title,omitempty"`
	Message  string              `json:"message,omitempty"`
	Data     any                 `json:"data,omitempty"`
}

type walletError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *walletError) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

func (e *walletError) Is(target error) bool {
	return target == wallet.ErrUserRejected && e.Code == userRejectedCode
}

type pageConn struct {
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	wallet bool
	// pending requests by id, guarded by Bridge.mu
	pending map[uint64]chan pageMessage
}

// Bridge relays the browser wallet extension of the attached page. It serves
// the page websocket, acts as the session's wallet.Provider and shows
// notifications on the page. One page is attached at a time; a new page
// replaces the previous one.
type Bridge struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	page   *pageConn
	nextID uint64

	feeds [3]event.Feed
}

func NewBridge() *Bridge {
	return &Bridge{
		upgrader: websocket.Upgrader{
			// The page is served by this same process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves the page until it goes away.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("Error upgrading page websocket err=%q", err)
		return
	}

	page := &pageConn{
		ws:      ws,
		send:    make(chan []byte, bridgeSendBuffer),
		done:    make(chan struct{}),
		pending: make(map[uint64]chan pageMessage),
	}
	b.attach(page)
	defer b.detach(page)

	go b.writeLoop(page)
	b.readLoop(page)
}

func (b *Bridge) attach(page *pageConn) {
	b.mu.Lock()
	old := b.page
	b.page = page
	b.mu.Unlock()

	if old != nil {
		glog.Infof("Replacing attached page")
		old.ws.Close()
	}
	glog.V(common.DEBUG).Infof("Page attached remote=%v", page.ws.RemoteAddr())
}

// detach fails the requests still waiting on page.
func (b *Bridge) detach(page *pageConn) {
	b.mu.Lock()
	if b.page == page {
		b.page = nil
	}
	for id, ch := range page.pending {
		ch <- pageMessage{Type: msgResponse, ID: id}
		delete(page.pending, id)
	}
	b.mu.Unlock()

	close(page.done)
	page.ws.Close()
	glog.V(common.DEBUG).Infof("Page detached")
}

func (b *Bridge) readLoop(page *pageConn) {
	for {
		var msg pageMessage
		if err := page.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				glog.Errorf("Error reading from page err=%q", err)
			}
			return
		}
		b.handle(page, msg)
	}
}

func (b *Bridge) writeLoop(page *pageConn) {
	for {
		select {
		case data := <-page.send:
			page.ws.SetWriteDeadline(time.Now().Add(bridgeWriteTimeout))
			if err := page.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				glog.Errorf("Error writing to page err=%q", err)
				page.ws.Close()
				return
			}
		case <-page.done:
			return
		}
	}
}

func (b *Bridge) handle(page *pageConn, msg pageMessage) {
	glog.V(common.VERBOSE).Infof("Page message type=%v id=%v", msg.Type, msg.ID)
	switch msg.Type {
	case msgHello:
		b.mu.Lock()
		page.wallet = msg.Wallet
		b.mu.Unlock()
	case msgResponse:
		b.mu.Lock()
		ch, ok := page.pending[msg.ID]
		delete(page.pending, msg.ID)
		b.mu.Unlock()
		if ok {
			ch <- msg
		}
	case msgAccountsChanged:
		b.feeds[wallet.AccountsChanged].Send(wallet.ProviderEvent{Kind: wallet.AccountsChanged, Accounts: msg.Accounts})
	case msgChainChanged:
		b.feeds[wallet.ChainChanged].Send(wallet.ProviderEvent{Kind: wallet.ChainChanged, ChainID: (*big.Int)(msg.ChainID)})
	case msgDisconnect:
		b.feeds[wallet.Disconnect].Send(wallet.ProviderEvent{Kind: wallet.Disconnect})
	default:
		glog.Warningf("Unknown page message type=%q", msg.Type)
	}
}

// Attached reports whether a page is connected and has announced a wallet extension.
func (b *Bridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page != nil && b.page.wallet
}

func (b *Bridge) RequestAccounts(ctx context.Context) ([]ethcommon.Address, error) {
	return b.accounts(ctx, "eth_requestAccounts")
}

func (b *Bridge) Accounts(ctx context.Context) ([]ethcommon.Address, error) {
	return b.accounts(ctx, "eth_accounts")
}

func (b *Bridge) accounts(ctx context.Context, method string) ([]ethcommon.Address, error) {
	res, err := b.call(ctx, method)
	if err != nil {
		return nil, err
	}
	var accounts []ethcommon.Address
	if err := json.Unmarshal(res, &accounts); err != nil {
		return nil, fmt.Errorf("invalid %v result: %w", method, err)
	}
	return accounts, nil
}

// call sends a wallet request to the page and waits for its answer.
func (b *Bridge) call(ctx context.Context, method string) (json.RawMessage, error) {
	b.mu.Lock()
	page := b.page
	if page == nil || !page.wallet {
		b.mu.Unlock()
		return nil, wallet.ErrProviderAbsent
	}
	b.nextID++
	id := b.nextID
	ch := make(chan pageMessage, 1)
	page.pending[id] = ch
	b.mu.Unlock()

	data, err := json.Marshal(pageMessage{Type: msgRequest, ID: id, Method: method})
	if err != nil {
		b.forget(page, id)
		return nil, err
	}
	select {
	case page.send <- data:
	case <-ctx.Done():
		b.forget(page, id)
		return nil, ctx.Err()
	case <-page.done:
		b.forget(page, id)
		return nil, wallet.ErrProviderAbsent
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		if resp.Result == nil {
			return nil, fmt.Errorf("%w: %v", wallet.ErrProviderAbsent, errPageDetached)
		}
		return resp.Result, nil
	case <-ctx.Done():
		b.forget(page, id)
		return nil, ctx.Err()
	}
}

func (b *Bridge) forget(page *pageConn, id uint64) {
	b.mu.Lock()
	delete(page.pending, id)
	b.mu.Unlock()
}

func (b *Bridge) Subscribe(kind wallet.ProviderEventKind, sink chan<- wallet.ProviderEvent) event.Subscription {
	return b.feeds[kind].Subscribe(sink)
}

// Notify shows a toast on the attached page. It drops the notification when no
// page is attached or the page is not keeping up.
func (b *Bridge) Notify(kind notify.Kind, title, message string) {
	b.push(pageMessage{Type: msgNotify, Kind: kind.String(), Title: title, Message: message})
}

// Push sends an arbitrary update, such as a refreshed balance, to the page.
func (b *Bridge) Push(typ string, data any) {
	b.push(pageMessage{Type: typ, Data: data})
}

func (b *Bridge) push(msg pageMessage) {
	b.mu.Lock()
	page := b.page
	b.mu.Unlock()
	if page == nil {
		glog.V(common.DEBUG).Infof("No page attached, dropping message type=%v", msg.Type)
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		glog.Errorf("Error marshalling page message type=%v err=%q", msg.Type, err)
		return
	}
	select {
	case page.send <- data:
	default:
		glog.Warningf("Page send buffer full, dropping message type=%v", msg.Type)
	}
}

// Close drops the attached page, if any.
func (b *Bridge) Close() {
	b.mu.Lock()
	page := b.page
	b.mu.Unlock()
	if page != nil {
		page.ws.Close()
	}
}
