package starter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/golang/glog"
	"github.com/olekukonko/tablewriter"
	"github.com/wordchain/wordreward/common"
	"github.com/wordchain/wordreward/eth"
	"github.com/wordchain/wordreward/eth/contracts"
	"github.com/wordchain/wordreward/game"
	"github.com/wordchain/wordreward/monitor"
	"github.com/wordchain/wordreward/notify"
	"github.com/wordchain/wordreward/reward"
	"github.com/wordchain/wordreward/server"
	"github.com/wordchain/wordreward/wallet"
)

const (
	WalletProviderPage = "page"
	WalletProviderNode = "node"

	// The timeout for ETH RPC calls made while starting up
	ethRPCTimeout = 20 * time.Second

	// Address of the deployed reward contract
	defaultContractAddr = "0x2Fc8d348712462442Ae49A5aD341Eb8bCBA2f44B"
)

type WordRewardConfig struct {
	HttpAddr              *string
	Datadir               *string
	Word                  *string
	WalletProvider        *string
	WalletPollInterval    *time.Duration
	ConnectTimeout        *time.Duration
	EthUrl                *string
	EthAcctAddr           *string
	EthPassword           *string
	EthKeystorePath       *string
	ContractAddr          *string
	GasLimit              *int
	GasPrice              *string
	RewardAmount          *string
	ConfirmTimeout        *time.Duration
	ReserveCacheTTL       *time.Duration
	Monitor               *bool
	NodeID                *string
	KafkaBootstrapServers *string
	KafkaUsername         *string
	KafkaPassword         *string
	KafkaTopic            *string
}

// DefaultWordRewardConfig creates a config with the default values
func DefaultWordRewardConfig() WordRewardConfig {
	defaultHttpAddr := "127.0.0.1:8080"
	defaultDatadir := ""
	defaultWord := game.DefaultWord
	defaultWalletProvider := WalletProviderPage
	defaultWalletPollInterval := 2 * time.Second
	defaultConnectTimeout := server.DefaultConnectTimeout
	defaultEthUrl := ""
	defaultEthAcctAddr := ""
	defaultEthPassword := ""
	defaultEthKeystorePath := ""
	defaultContractAddr := defaultContractAddr
	defaultGasLimit := int(eth.DefaultRewardGasLimit)
	defaultGasPrice := ""
	defaultRewardAmount := "1"
	defaultConfirmTimeout := 10 * time.Minute
	defaultReserveCacheTTL := server.DefaultReserveTTL
	defaultMonitor := false
	defaultNodeID := ""
	defaultKafkaBootstrapServers := ""
	defaultKafkaUsername := ""
	defaultKafkaPassword := ""
	defaultKafkaTopic := ""

	return WordRewardConfig{
		HttpAddr:              &defaultHttpAddr,
		Datadir:               &defaultDatadir,
		Word:                  &defaultWord,
		WalletProvider:        &defaultWalletProvider,
		WalletPollInterval:    &defaultWalletPollInterval,
		ConnectTimeout:        &defaultConnectTimeout,
		EthUrl:                &defaultEthUrl,
		EthAcctAddr:           &defaultEthAcctAddr,
		EthPassword:           &defaultEthPassword,
		EthKeystorePath:       &defaultEthKeystorePath,
		ContractAddr:          &defaultContractAddr,
		GasLimit:              &defaultGasLimit,
		GasPrice:              &defaultGasPrice,
		RewardAmount:          &defaultRewardAmount,
		ConfirmTimeout:        &defaultConfirmTimeout,
		ReserveCacheTTL:       &defaultReserveCacheTTL,
		Monitor:               &defaultMonitor,
		NodeID:                &defaultNodeID,
		KafkaBootstrapServers: &defaultKafkaBootstrapServers,
		KafkaUsername:         &defaultKafkaUsername,
		KafkaPassword:         &defaultKafkaPassword,
		KafkaTopic:            &defaultKafkaTopic,
	}
}

func (cfg WordRewardConfig) PrintConfig(w io.Writer) {
	// compare current settings with default values, and print the difference
	defCfg := DefaultWordRewardConfig()
	vDefCfg := reflect.ValueOf(defCfg)
	vCfg := reflect.ValueOf(cfg)
	cfgType := vCfg.Type()
	paramTable := tablewriter.NewWriter(w)

	sensitiveFields := map[string]bool{
		"EthPassword":   true,
		"KafkaPassword": true,
	}

	for i := 0; i < cfgType.NumField(); i++ {
		if !vDefCfg.Field(i).IsNil() && !vCfg.Field(i).IsNil() && vCfg.Field(i).Elem().Interface() != vDefCfg.Field(i).Elem().Interface() {
			val := fmt.Sprintf("%v", vCfg.Field(i).Elem())
			if _, ok := sensitiveFields[cfgType.Field(i).Name]; ok {
				val = "***"
			}
			paramTable.Append([]string{cfgType.Field(i).Name, val})
		}
	}
	paramTable.SetAlignment(tablewriter.ALIGN_LEFT)
	paramTable.SetCenterSeparator("*")
	paramTable.SetColumnSeparator("|")
	paramTable.Render()
}

// StartWordReward runs the node until ctx is done.
func StartWordReward(ctx context.Context, cfg WordRewardConfig, version string) {
	if *cfg.Datadir == "" {
		usr, err := user.Current()
		if err != nil {
			exit("Cannot find current user: %v", err)
		}
		*cfg.Datadir = filepath.Join(usr.HomeDir, ".wordreward")
	}
	if err := os.MkdirAll(*cfg.Datadir, 0755); err != nil {
		exit("Error creating datadir: %v", err)
	}

	dbh, err := common.InitDB(filepath.Join(*cfg.Datadir, "wordreward.sqlite3"))
	if err != nil {
		exit("Error opening DB: %v", err)
	}
	defer dbh.Close()

	if *cfg.NodeID == "" {
		hn, _ := os.Hostname()
		*cfg.NodeID = hn
	}
	if *cfg.Monitor {
		glog.Info("Monitoring enabled")
		monitor.Enabled = true
		monitor.InitCensus(*cfg.NodeID, version)
	}
	if err := startKafkaProducer(cfg); err != nil {
		exit("Error while starting Kafka producer: %v", err)
	}
	defer monitor.StopKafkaProducer()

	amount, err := common.ParseTokenAmount(*cfg.RewardAmount, common.TokenDecimals)
	if err != nil || amount.Sign() <= 0 {
		exit("Invalid -rewardAmount %q", *cfg.RewardAmount)
	}
	var gasPrice *big.Int
	if *cfg.GasPrice != "" {
		if gasPrice, err = common.ParseBigInt(*cfg.GasPrice); err != nil {
			exit("Invalid -gasPrice %q", *cfg.GasPrice)
		}
	}
	if *cfg.GasLimit <= 0 {
		exit("-gasLimit must be positive")
	}
	if !ethcommon.IsHexAddress(*cfg.ContractAddr) {
		exit("Invalid -contractAddr %q", *cfg.ContractAddr)
	}

	g, err := game.NewSession(*cfg.Word)
	if err != nil {
		exit("Invalid -word %q: %v", *cfg.Word, err)
	}

	//Get the Eth client connection information
	if *cfg.EthUrl == "" {
		exit("Need to specify an Ethereum node JSON-RPC URL using -ethUrl")
	}

	keystoreDir := filepath.Join(*cfg.Datadir, "keystore")
	keystoreInfo, err := parseEthKeystorePath(*cfg.EthKeystorePath)
	if err != nil {
		exit("%v", err)
	}
	if keystoreInfo.path != "" {
		keystoreDir = keystoreInfo.path
	}
	if (keystoreInfo.address != ethcommon.Address{}) {
		ethKeystoreAddr := keystoreInfo.address.Hex()
		ethAcctAddr := ethcommon.HexToAddress(*cfg.EthAcctAddr).Hex()
		if (ethAcctAddr == ethcommon.Address{}.Hex()) || ethKeystoreAddr == ethAcctAddr {
			*cfg.EthAcctAddr = ethKeystoreAddr
		} else {
			exit("-ethKeystorePath and -ethAcctAddr were both provided, but ethAcctAddr does not match the address found in keystore")
		}
	}

	//Set up eth client
	rpcCtx, cancel := context.WithTimeout(ctx, ethRPCTimeout)
	defer cancel()
	client, err := ethclient.DialContext(rpcCtx, *cfg.EthUrl)
	if err != nil {
		exit("Failed to connect to Ethereum client: %v", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(rpcCtx)
	if err != nil {
		exit("Failed to get chain ID from remote ethereum node: %v", err)
	}
	if err := checkOrStoreChainID(dbh, chainID); err != nil {
		exit("%v", err)
	}

	password, _ := common.ReadFromFile(*cfg.EthPassword)
	am, err := eth.NewAccountManager(ethcommon.HexToAddress(*cfg.EthAcctAddr), keystoreDir, chainID, true, password)
	if err != nil {
		exit("Error creating Ethereum account manager: %v", err)
	}
	if err := am.Unlock(password); err != nil {
		exit("Error unlocking Ethereum account: %v", err)
	}
	glog.Infof("Rewards are paid by account=%v", am.Account().Address.Hex())

	backend, err := eth.NewBackend(client, chainID)
	if err != nil {
		exit("Failed to create Ethereum backend: %v", err)
	}
	bank, err := contracts.NewWordBank(ethcommon.HexToAddress(*cfg.ContractAddr), backend)
	if err != nil {
		exit("Failed to bind reward contract: %v", err)
	}

	bridge := server.NewBridge()
	defer bridge.Close()

	var provider wallet.Provider
	switch *cfg.WalletProvider {
	case WalletProviderPage:
		provider = bridge
	case WalletProviderNode:
		np, err := eth.DialNodeProvider(ctx, *cfg.EthUrl)
		if err != nil {
			exit("Failed to connect node wallet provider: %v", err)
		}
		np.Watch(ctx, *cfg.WalletPollInterval)
		defer np.Close()
		provider = np
	default:
		exit("Unknown -walletProvider %q, must be %q or %q", *cfg.WalletProvider, WalletProviderPage, WalletProviderNode)
	}

	session := wallet.NewSession(provider, dbh)
	notifier := notify.Multi{notify.LogNotifier{}, bridge}

	ledger := eth.NewLedger(eth.LedgerConfig{
		Wallet:         session,
		Bank:           bank,
		Receipts:       backend,
		AccountManager: am,
		GasLimit:       uint64(*cfg.GasLimit),
		GasPrice:       gasPrice,
	})
	rewards := reward.NewCoordinator(ledger, notifier, reward.Config{
		Amount:         amount,
		ConfirmTimeout: *cfg.ConfirmTimeout,
	})
	ctrl := server.NewController(server.ControllerConfig{
		Game:           g,
		Wallet:         session,
		Ledger:         ledger,
		Rewards:        rewards,
		Notifier:       notifier,
		Pusher:         bridge,
		ConnectTimeout: *cfg.ConnectTimeout,
		ReserveTTL:     *cfg.ReserveCacheTTL,
	})

	if err := ctrl.Start(); err != nil {
		exit("Error starting controller: %v", err)
	}
	defer ctrl.Stop()
	if err := session.Start(ctx); err != nil {
		exit("Error starting wallet session: %v", err)
	}
	defer session.Stop()

	srv := server.NewServer(ctrl, rewards, bridge)
	if err := srv.ListenAndServe(ctx, *cfg.HttpAddr); err != nil {
		glog.Errorf("HTTP server error: %v", err)
	}
	glog.Infof("Shutting down")
}

func checkOrStoreChainID(dbh *common.DB, chainID *big.Int) error {
	expectedChainID, err := dbh.ChainID()
	if err != nil {
		return err
	}

	if expectedChainID == nil {
		glog.Infof("Storing chainID=%v", chainID)
		return dbh.SetChainID(chainID)
	}

	if expectedChainID.Cmp(chainID) != 0 {
		return fmt.Errorf("expecting chainID of %v, but got %v. Did you change networks without changing network name or datadir?", expectedChainID, chainID)
	}

	return nil
}

type keystorePath struct {
	path    string
	address ethcommon.Address
}

func parseEthKeystorePath(ethKeystorePath string) (keystorePath, error) {
	var keystore = keystorePath{"", ethcommon.Address{}}
	if ethKeystorePath == "" {
		return keystore, nil
	}

	ethKeystorePath = strings.TrimSuffix(ethKeystorePath, "/")
	fileInfo, err := os.Stat(ethKeystorePath)
	if err != nil {
		return keystore, errors.New("provided -ethKeystorePath was not found")
	}

	if fileInfo.IsDir() {
		keystore.path = ethKeystorePath
		return keystore, nil
	}

	keyText, err := common.ReadFromFile(ethKeystorePath)
	if err != nil {
		return keystore, errors.New("error opening keystore")
	}
	var keyJSON struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal([]byte(keyText), &keyJSON); err != nil || !ethcommon.IsHexAddress(keyJSON.Address) {
		return keystore, errors.New("error parsing address from keyfile")
	}
	keystore.path = filepath.Dir(ethKeystorePath)
	keystore.address = ethcommon.HexToAddress(keyJSON.Address)
	return keystore, nil
}

func exit(msg string, args ...any) {
	glog.Errorf(msg, args...)
	os.Exit(2)
}
