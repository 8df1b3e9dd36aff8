package starter

import (
	"github.com/golang/glog"
	"github.com/wordchain/wordreward/monitor"
)

func startKafkaProducer(cfg WordRewardConfig) error {
	if *cfg.KafkaBootstrapServers == "" || *cfg.KafkaTopic == "" {
		glog.Warning("not starting Kafka producer as producer config values aren't present")
		return nil
	}

	return monitor.InitKafkaProducer(
		*cfg.KafkaBootstrapServers,
		*cfg.KafkaUsername,
		*cfg.KafkaPassword,
		*cfg.KafkaTopic,
		*cfg.NodeID,
	)
}
