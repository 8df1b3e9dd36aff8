package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/game"
	"github.com/wordchain/wordreward/server"
)

type ticketView struct {
	GameID    string    `json:"gameID"`
	Recipient string    `json:"recipient"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	TxHash    string    `json:"txHash"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func tokens(baseUnits string) string {
	amount, err := common.ParseBigInt(baseUnits)
	if err != nil {
		return baseUnits
	}
	return common.HumanizeTokenAmount(amount, common.TokenDecimals)
}

func status(c *cli.Context, cl *client) error {
	var ws server.WalletStatus
	if err := cl.get("/api/wallet", &ws); err != nil {
		return err
	}
	var snap game.Snapshot
	if err := cl.get("/api/game", &snap); err != nil {
		return err
	}

	wtr := tabwriter.NewWriter(cl.out, 0, 0, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)
	if ws.Connected {
		fmt.Fprintf(wtr, "Wallet: \t%s\n", ws.Address)
		var bal server.Balance
		if err := cl.get("/api/balance", &bal); err == nil {
			fmt.Fprintf(wtr, "Balance: \t%s\n", tokens(bal.Balance))
		}
		var res server.Balance
		if err := cl.get("/api/reserve", &res); err == nil {
			fmt.Fprintf(wtr, "Bank Reserve: \t%s\n", tokens(res.Balance))
		}
	} else {
		fmt.Fprintf(wtr, "Wallet: \tnot connected\n")
	}
	fmt.Fprintf(wtr, "Game ID: \t%s\n", snap.ID)
	fmt.Fprintf(wtr, "Word: \t%s\n", snap.Masked)
	fmt.Fprintf(wtr, "Guessed: \t%s\n", strings.Join(snap.Guessed, " "))
	fmt.Fprintf(wtr, "Guesses Left: \t%d\n", snap.GuessesLeft)
	fmt.Fprintf(wtr, "Solved: \t%v\n", snap.Solved)
	return wtr.Flush()
}

func connect(c *cli.Context, cl *client) error {
	fmt.Fprintln(cl.out, "Waiting for the wallet to approve the connection...")
	var ws server.WalletStatus
	if err := cl.post("/api/wallet/connect", nil, &ws); err != nil {
		return err
	}
	fmt.Fprintf(cl.out, "Connected with %v\n", ws.Address)
	return nil
}

func disconnect(c *cli.Context, cl *client) error {
	if err := cl.post("/api/wallet/disconnect", nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(cl.out, "Wallet disconnected")
	return nil
}

func balance(c *cli.Context, cl *client) error {
	var bal server.Balance
	err := cl.get("/api/balance", &bal)
	var herr *httpError
	if errors.As(err, &herr) && herr.status == http.StatusConflict {
		fmt.Fprintln(cl.out, "Balance: 0 (no wallet connected)")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cl.out, "Balance of %v: %v\n", bal.Account, tokens(bal.Balance))
	return nil
}

func reserve(c *cli.Context, cl *client) error {
	var res server.Balance
	if err := cl.get("/api/reserve", &res); err != nil {
		return err
	}
	fmt.Fprintf(cl.out, "Bank reserve: %v\n", tokens(res.Balance))
	return nil
}

func printGame(cl *client, snap game.Snapshot) {
	fmt.Fprintf(cl.out, "%v   (%d guesses left)\n", snap.Masked, snap.GuessesLeft)
	if snap.Solved {
		fmt.Fprintln(cl.out, "Solved!")
	}
}

func guess(c *cli.Context, cl *client) error {
	letter := c.Args().First()
	if letter == "" {
		return errors.New("usage: guess <letter>")
	}
	var snap game.Snapshot
	if err := cl.post("/api/game/guess", url.Values{"letter": {letter}}, &snap); err != nil {
		return err
	}
	printGame(cl, snap)
	return nil
}

func unguess(c *cli.Context, cl *client) error {
	letter := c.Args().First()
	if letter == "" {
		return errors.New("usage: unguess <letter>")
	}
	var snap game.Snapshot
	if err := cl.do(http.MethodDelete, "/api/game/guess/"+url.PathEscape(letter), nil, &snap); err != nil {
		return err
	}
	printGame(cl, snap)
	return nil
}

func reset(c *cli.Context, cl *client) error {
	var snap game.Snapshot
	if err := cl.post("/api/game/reset", nil, &snap); err != nil {
		return err
	}
	fmt.Fprintf(cl.out, "New game %v\n", snap.ID)
	printGame(cl, snap)
	return nil
}

func tickets(c *cli.Context, cl *client) error {
	var ts []ticketView
	if err := cl.get("/api/rewards", &ts); err != nil {
		return err
	}
	if len(ts) == 0 {
		fmt.Fprintln(cl.out, "No reward tickets")
		return nil
	}

	table := tablewriter.NewWriter(cl.out)
	table.SetHeader([]string{"Game", "Recipient", "Amount", "Status", "Tx", "Updated", "Error"})
	for _, t := range ts {
		table.Append([]string{
			t.GameID,
			common.ShortenAccount(t.Recipient),
			tokens(t.Amount),
			t.Status,
			common.ShortenAccount(t.TxHash),
			humanize.Time(t.UpdatedAt),
			t.Error,
		})
	}
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Render()
	return nil
}

func retry(c *cli.Context, cl *client) error {
	gameID := c.Args().First()
	if gameID == "" {
		return errors.New("usage: retry <gameID>")
	}
	if err := cl.post("/api/rewards/"+url.PathEscape(gameID)+"/reset", nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(cl.out, "Reward for game %v is being paid again\n", gameID)
	return nil
}
