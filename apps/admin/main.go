package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/partnership"
	"github.com/trezcool/partnerships/fs"
	emailsvc "github.com/trezcool/partnerships/services/email"
	eventsvc "github.com/trezcool/partnerships/services/events"
	logsvc "github.com/trezcool/partnerships/services/logger"
	"github.com/trezcool/partnerships/storage/database"
	sqlxrepos "github.com/trezcool/partnerships/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	// set up services
	var events core.EventPublisher = eventsvc.NewLogPublisher(logger)
	if conf.AMQP.URL != "" {
		pub, err := eventsvc.NewAMQPPublisher(conf.AMQP)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up event publisher: %v", err), err)
		}
		events = pub
	}
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(log.New(os.Stdout, "", 0), conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	if err = core.ParseEmailTemplates(appfs.FS, conf.Debug); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	partnership.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:       conf,
		db:         db.DB,
		svc:        partnership.NewService(sqlxrepos.NewPartnershipRepository(db), events, logger),
		validate:   validate,
		translator: translator,
		mailSvc:    mailSvc,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)

	if pub, ok := events.(*eventsvc.AMQPPublisher); ok {
		_ = pub.Close()
	}
	_ = db.Close()
	logger.Close()

	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %+v\n", err)
		}
		os.Exit(1)
	}
}
