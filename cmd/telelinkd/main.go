package main

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/telelink/pkg/api"
	"github.com/robotalks/telelink/pkg/bridge/mqtt"
	"github.com/robotalks/telelink/pkg/env"
	"github.com/robotalks/telelink/pkg/framework"
	"github.com/robotalks/telelink/pkg/telemetry"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	reg := conf.MustLoadRegistry()
	conn, rw := conf.MustConnect(reg)
	glog.Infof("link %s connected", conf.LinkURL)

	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.NamedRun("link", framework.RunFunc(func(ctx context.Context) error {
		return framework.RunWithContextCloser(ctx, rw, func() error {
			return conn.Run(ctx, rw)
		})
	})))

	if sched := telemetry.NewScheduler(conn, reg); sched.NumObjects() > 0 {
		runner.Go(framework.NamedRun("telemetry", sched))
	}

	if conf.MQTTURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.MQTTURL, env.ClientID())
		if err != nil {
			glog.Exitf("mqtt %s: %v", conf.MQTTURL, err)
		}
		if err = q.Connect(); err != nil {
			glog.Exitf("mqtt connect %s: %v", conf.MQTTURL, err)
		}
		defer q.Close()
		b := mqtt.NewBridge(q, conn, reg)
		b.Timeout = conf.Timeout
		b.StatsInterval = conf.StatsInterval
		runner.Go(framework.NamedRun("bridge", b))
	}

	if conf.HTTPAddr != "" {
		s := api.NewServer(conn, reg)
		s.Addr = conf.HTTPAddr
		s.Timeout = conf.Timeout
		runner.Go(framework.NamedRun("api", s))
	}

	if err := runner.Wait(); err != nil {
		glog.Exitf("%v", err)
	}
}
