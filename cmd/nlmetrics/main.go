// Command nlmetrics connects one endpoint to a netlink family and serves
// its Stats counters as Prometheus metrics.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nlconn/nlconn"
	"github.com/nlconn/nlconn/metrics"
)

func main() {
	protocol := flag.Int("protocol", 0, "netlink protocol family number")
	addr := flag.String("listen", ":18080", "metrics listen address")
	flag.Parse()

	hostname, err := os.Hostname()
	if err != nil {
		logrus.Fatalf("hostname: %v", err)
	}

	ep := nlconn.New()
	if err := ep.Connect(*protocol); err != nil {
		logrus.Fatalf("connect: %v", err)
	}
	defer ep.Close()

	coll := metrics.NewCollector(
		"nlconn",
		nil,
		prometheus.Labels{
			"hostname": hostname,
			"endpoint": ep.ID(),
		},
		func(err error) {
			logrus.Warnf("nlmetrics: collector: %v", err)
		},
	)
	coll.Add(ep, nil)
	prometheus.MustRegister(coll)

	go func() {
		if _, err := ep.RecvMsgs(); err != nil {
			logrus.Warnf("nlmetrics: recv loop ended: %v", err)
		}
	}()

	http.Handle("/metrics", promhttp.Handler())
	logrus.Infof("nlmetrics: serving on %s", *addr)
	logrus.Fatal(http.ListenAndServe(*addr, nil))
}
