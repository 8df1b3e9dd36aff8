package starter

import (
	"flag"
)

func NewWordRewardConfig(fs *flag.FlagSet) WordRewardConfig {
	cfg := DefaultWordRewardConfig()

	// Network & Addresses:
	cfg.HttpAddr = fs.String("httpAddr", *cfg.HttpAddr, "Address to bind for the game page and HTTP API")
	cfg.Datadir = fs.String("datadir", *cfg.Datadir, "Data directory for the node")

	// Game
	cfg.Word = fs.String("word", *cfg.Word, "Word to guess, letters A-Z")

	// Wallet
	cfg.WalletProvider = fs.String("walletProvider", *cfg.WalletProvider, "Where the player's wallet lives: 'page' relays the browser extension over the page websocket, 'node' uses the accounts managed by -ethUrl")
	cfg.WalletPollInterval = fs.Duration("walletPollInterval", *cfg.WalletPollInterval, "How often the node wallet provider checks for account and chain changes")
	cfg.ConnectTimeout = fs.Duration("connectTimeout", *cfg.ConnectTimeout, "Maximum time to wait for the player to answer a wallet connection request")

	// Ledger
	cfg.EthUrl = fs.String("ethUrl", *cfg.EthUrl, "Ethereum node JSON-RPC URL")
	cfg.EthAcctAddr = fs.String("ethAcctAddr", *cfg.EthAcctAddr, "Existing Eth account address paying the rewards. For use when multiple ETH accounts exist in the keystore directory")
	cfg.EthPassword = fs.String("ethPassword", *cfg.EthPassword, "Password for existing Eth account address or path to file")
	cfg.EthKeystorePath = fs.String("ethKeystorePath", *cfg.EthKeystorePath, "Path to ETH keystore directory or keyfile. If keyfile, overrides -ethAcctAddr and uses parent directory")
	cfg.ContractAddr = fs.String("contractAddr", *cfg.ContractAddr, "Address of the reward contract")
	cfg.GasLimit = fs.Int("gasLimit", *cfg.GasLimit, "Gas limit for reward transactions")
	cfg.GasPrice = fs.String("gasPrice", *cfg.GasPrice, "Gas price for reward transactions in wei. Leave empty to use the node's suggestion")
	cfg.RewardAmount = fs.String("rewardAmount", *cfg.RewardAmount, "Tokens paid for a solved word")
	cfg.ConfirmTimeout = fs.Duration("confirmTimeout", *cfg.ConfirmTimeout, "Maximum time to wait for a reward transaction to be mined. 0 waits until shutdown")
	cfg.ReserveCacheTTL = fs.Duration("reserveCacheTTL", *cfg.ReserveCacheTTL, "How long the reward reserve shown by /api/reserve is cached")

	// Metrics & logging:
	cfg.Monitor = fs.Bool("monitor", *cfg.Monitor, "Set to true to expose metrics on /metrics")
	cfg.NodeID = fs.String("nodeID", *cfg.NodeID, "Node ID used in metrics and published events")
	cfg.KafkaBootstrapServers = fs.String("kafkaBootstrapServers", *cfg.KafkaBootstrapServers, "URL of Kafka Bootstrap Servers")
	cfg.KafkaUsername = fs.String("kafkaUser", *cfg.KafkaUsername, "Kafka Username")
	cfg.KafkaPassword = fs.String("kafkaPassword", *cfg.KafkaPassword, "Kafka Password")
	cfg.KafkaTopic = fs.String("kafkaTopic", *cfg.KafkaTopic, "Kafka Topic for reward events")

	return cfg
}
