package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/eth"
	"github.com/wordchain/wordreward/game"
	"github.com/wordchain/wordreward/reward"
	"github.com/wordchain/wordreward/wallet"
)

func logAndRespondWithError(w http.ResponseWriter, errMsg string, code int) {
	glog.Error(errMsg)
	http.Error(w, errMsg, code)
}

func respondJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logAndRespondWithError(w, fmt.Sprintf("could not marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func mustHaveFormParams(h http.Handler, params ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			glog.Error(err)
			logAndRespondWithError(w, "parse form error", http.StatusInternalServerError)
			return
		}

		for _, param := range params {
			if r.FormValue(param) == "" {
				logAndRespondWithError(w, fmt.Sprintf("missing form param: %s", param), http.StatusBadRequest)
				return
			}
		}

		h.ServeHTTP(w, r)
	})
}

func walletStatusHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, c.WalletStatus())
	})
}

func connectWalletHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := c.Connect(r.Context())
		switch {
		case errors.Is(err, wallet.ErrProviderAbsent):
			logAndRespondWithError(w, "no wallet provider available", http.StatusServiceUnavailable)
			return
		case errors.Is(err, context.DeadlineExceeded):
			logAndRespondWithError(w, "wallet did not answer in time", http.StatusGatewayTimeout)
			return
		case errors.Is(err, wallet.ErrUserRejected):
			logAndRespondWithError(w, fmt.Sprintf("could not connect wallet: %v", err), http.StatusForbidden)
			return
		case err != nil:
			logAndRespondWithError(w, fmt.Sprintf("could not connect wallet: %v", err), http.StatusInternalServerError)
			return
		}

		respondJSON(w, status)
	})
}

func disconnectWalletHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Disconnect()
		respondJSON(w, c.WalletStatus())
	})
}

func balanceHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bal, err := c.Balance(r.Context())
		if errors.Is(err, eth.ErrNotConnected) {
			logAndRespondWithError(w, "wallet not connected", http.StatusConflict)
			return
		}
		if err != nil {
			logAndRespondWithError(w, fmt.Sprintf("could not query balance: %v", err), http.StatusInternalServerError)
			return
		}

		respondJSON(w, bal)
	})
}

func reserveHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reserve, err := c.Reserve(r.Context())
		if errors.Is(err, eth.ErrNotConnected) {
			logAndRespondWithError(w, "wallet not connected", http.StatusConflict)
			return
		}
		if err != nil {
			logAndRespondWithError(w, fmt.Sprintf("could not query bank reserve: %v", err), http.StatusInternalServerError)
			return
		}

		respondJSON(w, reserve)
	})
}

func gameHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, c.Game())
	})
}

func gameErrorCode(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidLetter):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotGuessed):
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

func guessHandler(c *Controller) http.Handler {
	return mustHaveFormParams(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := c.Guess(r.FormValue("letter"))
		if err != nil {
			logAndRespondWithError(w, err.Error(), gameErrorCode(err))
			return
		}

		respondJSON(w, snap)
	}), "letter")
}

func removeGuessHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := c.Remove(chi.URLParam(r, "letter"))
		if err != nil {
			logAndRespondWithError(w, err.Error(), gameErrorCode(err))
			return
		}

		respondJSON(w, snap)
	})
}

func resetGameHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, c.Reset())
	})
}

func ticketsHandler(rewards *reward.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, rewards.Tickets())
	})
}

func ticketHandler(rewards *reward.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		t, ok := rewards.Ticket(gameID)
		if !ok {
			logAndRespondWithError(w, fmt.Sprintf("no reward ticket for game %v", gameID), http.StatusNotFound)
			return
		}

		respondJSON(w, t)
	})
}

func retryTicketHandler(c *Controller) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		err := c.RetryReward(gameID)
		switch {
		case errors.Is(err, reward.ErrTicketNotFound):
			logAndRespondWithError(w, fmt.Sprintf("no reward ticket for game %v", gameID), http.StatusNotFound)
			return
		case err != nil:
			logAndRespondWithError(w, fmt.Sprintf("could not retry reward: %v", err), http.StatusConflict)
			return
		}

		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("reward retry started"))
	})
}
