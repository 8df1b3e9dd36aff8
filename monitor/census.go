package monitor

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/golang/glog"

	"contrib.go.opencensus.io/exporter/prometheus"
	rprom "github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

type RewardError string

const (
	RewardErrorUnknown             RewardError = "Unknown"
	RewardErrorNotConnected        RewardError = "NotConnected"
	RewardErrorInsufficientReserve RewardError = "InsufficientReserve"
	RewardErrorSubmission          RewardError = "Submission"
	RewardErrorConfirmation        RewardError = "Confirmation"
)

// Enabled true if metrics was enabled in command line
var Enabled bool

var unitTestMode bool

type censusMetricsCounter struct {
	nodeID string
	ctx    context.Context
	lock   sync.Mutex

	kNodeID    tag.Key
	kVersion   tag.Key
	kKind      tag.Key
	kStatus    tag.Key
	kErrorCode tag.Key

	mVersions            *stats.Int64Measure
	mWalletTransitions   *stats.Int64Measure
	mGamesSolved         *stats.Int64Measure
	mRewardTickets       *stats.Int64Measure
	mRewardErrors        *stats.Int64Measure
	mRewardConfirmTime   *stats.Float64Measure
	mBankReserve         *stats.Float64Measure
	mRewardsPaid         *stats.Float64Measure
	mPendingRewardsCount *stats.Int64Measure

	pendingRewards int64
}

// Exporter Prometheus exporter that handles `/metrics` endpoint
var Exporter *prometheus.Exporter

var census censusMetricsCounter

var registerViews = view.Register

// InitCensus init metrics
func InitCensus(nodeID, version string) {
	initCensus(nodeID, version)
}

func initCensus(nodeID, version string) {
	census = censusMetricsCounter{nodeID: nodeID}
	var err error
	census.kNodeID = tag.MustNewKey("node_id")
	census.kVersion = tag.MustNewKey("version")
	census.kKind = tag.MustNewKey("kind")
	census.kStatus = tag.MustNewKey("status")
	census.kErrorCode = tag.MustNewKey("error_code")
	census.ctx, err = tag.New(context.Background(), tag.Insert(census.kNodeID, nodeID))
	if err != nil {
		glog.Fatal("Error creating context", err)
	}

	census.mVersions = stats.Int64("versions", "Version information.", "Num")
	census.mWalletTransitions = stats.Int64("wallet_transitions_total", "Wallet session transitions", "tot")
	census.mGamesSolved = stats.Int64("games_solved_total", "Words solved", "tot")
	census.mRewardTickets = stats.Int64("reward_tickets_total", "Reward ticket transitions", "tot")
	census.mRewardErrors = stats.Int64("reward_errors_total", "Reward errors", "tot")
	census.mRewardConfirmTime = stats.Float64("reward_confirmation_time_seconds", "Time from submission to confirmation", "sec")
	census.mBankReserve = stats.Float64("bank_reserve_tokens", "Reward contract reserve, whole tokens", "tokens")
	census.mRewardsPaid = stats.Float64("rewards_paid_tokens", "Confirmed reward amount, whole tokens", "tokens")
	census.mPendingRewardsCount = stats.Int64("pending_rewards", "Rewards submitted and not yet settled", "tot")

	ctx, err := tag.New(context.Background(), tag.Insert(census.kNodeID, nodeID), tag.Insert(census.kVersion, version))
	if err != nil {
		glog.Fatal("Error creating tagged context", err)
	}

	baseTags := []tag.Key{census.kNodeID}

	views := []*view.View{
		{
			Name:        "versions",
			Measure:     census.mVersions,
			Description: "Versions used by wordreward.",
			TagKeys:     []tag.Key{census.kNodeID, census.kVersion},
			Aggregation: view.LastValue(),
		},
		{
			Name:        "wallet_transitions_total",
			Measure:     census.mWalletTransitions,
			Description: "Wallet session transitions by kind",
			TagKeys:     append([]tag.Key{census.kKind}, baseTags...),
			Aggregation: view.Count(),
		},
		{
			Name:        "games_solved_total",
			Measure:     census.mGamesSolved,
			Description: "Number of solved words",
			TagKeys:     baseTags,
			Aggregation: view.Count(),
		},
		{
			Name:        "reward_tickets_total",
			Measure:     census.mRewardTickets,
			Description: "Reward ticket transitions by status",
			TagKeys:     append([]tag.Key{census.kStatus}, baseTags...),
			Aggregation: view.Count(),
		},
		{
			Name:        "reward_errors_total",
			Measure:     census.mRewardErrors,
			Description: "Reward errors by code",
			TagKeys:     append([]tag.Key{census.kErrorCode}, baseTags...),
			Aggregation: view.Count(),
		},
		{
			Name:        "reward_confirmation_time_seconds",
			Measure:     census.mRewardConfirmTime,
			Description: "Time from reward submission to confirmation, seconds",
			TagKeys:     baseTags,
			Aggregation: view.Distribution(0, 1, 2, 5, 10, 15, 30, 60, 120, 300),
		},
		{
			Name:        "bank_reserve_tokens",
			Measure:     census.mBankReserve,
			Description: "Last observed reward contract reserve",
			TagKeys:     baseTags,
			Aggregation: view.LastValue(),
		},
		{
			Name:        "rewards_paid_tokens",
			Measure:     census.mRewardsPaid,
			Description: "Sum of confirmed rewards",
			TagKeys:     baseTags,
			Aggregation: view.Sum(),
		},
		{
			Name:        "pending_rewards",
			Measure:     census.mPendingRewardsCount,
			Description: "Rewards submitted and not yet settled",
			TagKeys:     baseTags,
			Aggregation: view.LastValue(),
		},
	}

	// Register the views
	if err := registerViews(views...); err != nil {
		glog.Fatalf("Failed to register views: %v", err)
	}
	registry := rprom.NewRegistry()
	if !unitTestMode {
		registry.MustRegister(rprom.NewProcessCollector(rprom.ProcessCollectorOpts{}))
		registry.MustRegister(rprom.NewGoCollector())
	}
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: "wordreward",
		Registry:  registry,
	})
	if err != nil {
		glog.Fatalf("Failed to create the Prometheus stats exporter: %v", err)
	}

	// Register the Prometheus exporters as a stats exporter.
	view.RegisterExporter(pe)
	stats.Record(ctx, census.mVersions.M(1))
	Exporter = pe
}

func WalletTransition(kind string) {
	ctx, err := tag.New(census.ctx, tag.Insert(census.kKind, kind))
	if err != nil {
		glog.Error("Error creating context", err)
		return
	}
	stats.Record(ctx, census.mWalletTransitions.M(1))
}

func GameSolved() {
	stats.Record(census.ctx, census.mGamesSolved.M(1))
}

// RewardTicket records a ticket reaching status. Submitted tickets count as
// pending until they reach Confirmed or Failed.
func RewardTicket(status string) {
	census.rewardTicket(status)
}

func (cen *censusMetricsCounter) rewardTicket(status string) {
	ctx, err := tag.New(cen.ctx, tag.Insert(cen.kStatus, status))
	if err != nil {
		glog.Error("Error creating context", err)
		return
	}
	stats.Record(ctx, cen.mRewardTickets.M(1))

	cen.lock.Lock()
	switch status {
	case "submitted":
		cen.pendingRewards++
	case "confirmed", "failed":
		if cen.pendingRewards > 0 {
			cen.pendingRewards--
		}
	}
	pending := cen.pendingRewards
	cen.lock.Unlock()

	stats.Record(cen.ctx, cen.mPendingRewardsCount.M(pending))
}

func RewardFailed(code RewardError) {
	ctx, err := tag.New(census.ctx, tag.Insert(census.kErrorCode, string(code)))
	if err != nil {
		glog.Error("Error creating context", err)
		return
	}
	stats.Record(ctx, census.mRewardErrors.M(1))
}

// RewardConfirmed records a confirmed reward of amount base units.
func RewardConfirmed(amount *big.Int, decimals int, took time.Duration) {
	stats.Record(census.ctx, census.mRewardConfirmTime.M(took.Seconds()), census.mRewardsPaid.M(toTokens(amount, decimals)))
}

func BankReserve(reserve *big.Int, decimals int) {
	stats.Record(census.ctx, census.mBankReserve.M(toTokens(reserve, decimals)))
}

func toTokens(amount *big.Int, decimals int) float64 {
	if amount == nil {
		return 0
	}
	unit := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), unit).Float64()
	return f
}
