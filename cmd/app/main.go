package main

import (
	"context"
	"fmt"
	"os"

	authservice "transit-mapper/internal/auth-service"
	"transit-mapper/internal/config"
	"transit-mapper/internal/mylogger"
	surveyservice "transit-mapper/internal/survey-service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: app <survey-service|auth-service>")
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	mylog, err := mylogger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "survey-service":
		err = surveyservice.Execute(ctx, mylog, cfg)
	case "auth-service":
		err = authservice.Execute(ctx, mylog, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown service %q\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		mylog.Error("service exited with error", err)
		os.Exit(1)
	}
}
