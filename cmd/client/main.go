package main

import (
	"log"

	"github.com/abiosoft/ishell"

	"github.com/jrozner/roomboard/web/client"
)

func main() {
	config, err := readConfig()
	if err != nil {
		log.Println("no config file found; creating a new one")
		config, err = createConfig()
		if err != nil {
			log.Fatal("unable to create new config")
		}
	}

	c := client.NewClient(config.Host, config.Token)

	shell := ishell.New()
	shell.Set("client", c)
	shell.Set("config", config)

	shell.AddCmd(&ishell.Cmd{
		Name: "register",
		Help: "register a new account",
		Func: register,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "login",
		Help: "log in to an existing account",
		Func: login,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "conversations",
		Help: "list conversations",
		Func: listConversations,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "read",
		Help: "read a conversation and mark it read",
		Func: readConversation,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "compose",
		Help: "compose a new message",
		Func: compose,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "contact",
		Help: "message the owner of a listing",
		Func: contact,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "unread",
		Help: "show the unread message count",
		Func: unread,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "host",
		Help: "sets the host",
		Func: setHost,
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "config",
		Help: "shows the current config",
		Func: showConfig,
	})

	shell.Run()
}
