package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=5s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=5s"`
	GCInterval           time.Duration `env:"GC_INTERVAL,default=10m"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
