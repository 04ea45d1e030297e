package main

import (
	"flag"
	"log"
	"os"
	"reflect"

	"github.com/robotalks/telelink/pkg/bridge/mqtt"
	"github.com/robotalks/telelink/pkg/bridge/msgs"
	"github.com/robotalks/telelink/pkg/env"
)

var (
	mqttURL = "mqtt://localhost:1883/telelink/"
)

func init() {
	if val := os.Getenv("TELELINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL, env.ClientID()+":mon")
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}

	_, err = q.Subscribe("#", func(topic string, payload []byte) {
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	})
	if err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
