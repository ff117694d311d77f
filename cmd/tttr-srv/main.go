// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tttr-srv starts a TDAQ process replaying TTTR acquisitions
// and publishing the decoded events on its /events output.
//
// Fatal errors are reported by mail when the MAIL_USERNAME, MAIL_PASSWORD,
// MAIL_SERVER, MAIL_PORT and MAIL_TGTS environment variables are set.
package main // import "github.com/go-lpc/tttr/cmd/tttr-srv"

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/tttr/conddb"
	"github.com/go-lpc/tttr/node"
	"github.com/sbinet/pmon"
	mail "gopkg.in/gomail.v2"
)

var (
	doMon  = flag.Bool("pmon", false, "enable pmon monitoring")
	doFreq = flag.Duration("freq", 1*time.Second, "pmon frequency")
	monOut = flag.String("pmon-out", "tttr-srv-pmon.log", "path to pmon log file")

	dbname = flag.String("db", "", "name of the configuration database")
	serial = flag.String("serial", "", "serial number of the photon counter")
)

func main() {
	cmd := flags.New()

	log.SetPrefix("tttr-srv: ")
	log.SetFlags(0)

	if *doMon {
		kill, err := monitor(os.Getpid(), *doFreq, *monOut)
		if err != nil {
			log.Fatalf("could not start pmon: %+v", err)
		}
		defer kill()
	}

	var opts []node.Option
	if *dbname != "" {
		db, err := conddb.Open(*dbname)
		if err != nil {
			log.Fatalf("could not open configuration database: %+v", err)
		}
		defer db.Close()
		opts = append(opts, node.WithDB(db, *serial))
	}

	dev := node.New("tttr-srv", opts...)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/events", dev.Events)

	srv.RunHandle(dev.Run)

	err := srv.Run(context.Background())
	if err != nil {
		if e := alertMail(err); e != nil {
			log.Printf("could not send mail alert: %+v", e)
		}
		log.Panicf("error: %+v", err)
	}
}

func monitor(pid int, freq time.Duration, oname string) (func(), error) {
	p, err := pmon.Monitor(pid)
	if err != nil {
		return nil, fmt.Errorf("could not start monitoring pid=%d: %w", pid, err)
	}

	f, err := os.Create(oname)
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		err := p.Run()
		if err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()

	return func() {
		err := p.Kill()
		if err != nil {
			log.Printf("could not stop monitoring: %+v", err)
		}
		_ = f.Close()
	}, nil
}

var (
	alertMailUsr  = os.Getenv("MAIL_USERNAME")
	alertMailPwd  = os.Getenv("MAIL_PASSWORD")
	alertMailSrv  = os.Getenv("MAIL_SERVER")
	alertMailPort = atoi(os.Getenv("MAIL_PORT"))
	alertMailTgts = targets(os.Getenv("MAIL_TGTS"))
)

func alertMail(err error) error {
	if alertMailUsr == "" || alertMailPwd == "" ||
		alertMailSrv == "" || alertMailPort == 0 ||
		len(alertMailTgts) == 0 {
		return fmt.Errorf("missing credentials")
	}

	msg := newAlert(alertMailUsr, alertMailTgts, err)

	dial := mail.NewDialer(alertMailSrv, alertMailPort, alertMailUsr, alertMailPwd)
	dial.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	return dial.DialAndSend(msg)
}

func newAlert(from string, tgts []string, err error) *mail.Message {
	host, _ := os.Hostname()

	msg := mail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("Bcc", tgts...)
	msg.SetHeader("Subject", fmt.Sprintf("[tttr-srv] acquisition failure on %q", host))
	msg.SetBody("text/plain", fmt.Sprintf("host:  %q\ntime:  %v\nerror: %+v",
		host, time.Now().UTC().Format(time.RFC3339), err,
	))
	return msg
}

func targets(s string) []string {
	var tgts []string
	for _, tgt := range strings.Split(s, ",") {
		tgt = strings.TrimSpace(tgt)
		if tgt == "" {
			continue
		}
		tgts = append(tgts, tgt)
	}
	return tgts
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("could not parse %q: %+v", s, err)
		return 0
	}
	return v
}
