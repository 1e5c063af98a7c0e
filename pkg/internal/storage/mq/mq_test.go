package mq

import (
	"testing"

	"github.com/yeisme/dropvault/pkg/configs"
)

func TestGetRegisteredMQTypes(t *testing.T) {
	registered := GetRegisteredMQTypes()

	seen := make(map[configs.MQType]bool, len(registered))
	for _, mqType := range registered {
		seen[mqType] = true
	}

	for _, want := range []configs.MQType{configs.MQTypeNATS, configs.MQTypeRedis} {
		if !seen[want] {
			t.Errorf("type %s missing from registry: %v", want, registered)
		}
	}
}
