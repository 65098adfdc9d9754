// Command nlpickup connects to a netlink family, sends one request, and
// dumps whatever it picks up.
package main

import (
	"encoding/hex"
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/nlconn/nlconn"
)

func main() {
	protocol := flag.Int("protocol", 0, "netlink protocol family number")
	msgType := flag.Uint("type", uint(nlconn.MinType), "request message type")
	flag.Parse()

	ep := nlconn.New()
	ep.Callbacks().SetKind(nlconn.HookValid, nlconn.Verbose)
	ep.Callbacks().SetKind(nlconn.HookFinish, nlconn.Verbose)

	if err := ep.Connect(*protocol); err != nil {
		logrus.Fatalf("connect: %v", err)
	}
	defer ep.Close()

	req := nlconn.NewMessage(0)
	if err := req.PutHeader(nlconn.AutoPort, nlconn.AutoSeq, nlconn.HeaderType(*msgType), 0, nlconn.Request); err != nil {
		logrus.Fatalf("build request: %v", err)
	}

	if _, err := ep.SendAuto(req); err != nil {
		logrus.Fatalf("send: %v", err)
	}

	result, err := ep.Pickup(func(m *nlconn.Message) (any, error) {
		return append([]byte(nil), m.Payload()...), nil
	})
	if err != nil {
		logrus.Fatalf("pickup: %v", err)
	}

	payload, _ := result.([]byte)
	logrus.Infof("nlpickup: received %d bytes: %s", len(payload), hex.EncodeToString(payload))
}
