package main

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/jrozner/roomboard/web/client"
)

const separator = "----------------------------------------------"

func session(ctx *ishell.Context) (*client.Client, *Config) {
	c, ok := ctx.Get("client").(*client.Client)
	if !ok {
		log.Panic("no client exists")
	}

	config, ok := ctx.Get("config").(*Config)
	if !ok {
		log.Panic("no config exists")
	}

	return c, config
}

func prompt(ctx *ishell.Context, label string) string {
	ctx.Print(label)
	return strings.TrimSpace(ctx.ReadLine())
}

func promptID(ctx *ishell.Context, label string) (uint64, bool) {
	id, err := strconv.ParseUint(prompt(ctx, label), 10, 64)
	if err != nil {
		ctx.Println("invalid id")
		return 0, false
	}

	return id, true
}

func persistToken(ctx *ishell.Context, c *client.Client, config *Config) {
	config.Token = c.Token()
	err := saveConfig(config)
	if err != nil {
		ctx.Println(err)
	}
}

func register(ctx *ishell.Context) {
	c, config := session(ctx)

	username := prompt(ctx, "username: ")
	email := prompt(ctx, "email: ")
	ctx.Print("password: ")
	password := ctx.ReadPassword()

	profile, err := c.Register(context.Background(), username, email, password)
	if err != nil {
		ctx.Printf("unable to register: %s\n", err)
		return
	}

	persistToken(ctx, c, config)
	ctx.Printf("registered as %s (id %d)\n", profile.Username, profile.ID)
}

func login(ctx *ishell.Context) {
	c, config := session(ctx)

	email := prompt(ctx, "email: ")
	ctx.Print("password: ")
	password := ctx.ReadPassword()

	profile, err := c.Login(context.Background(), email, password)
	if err != nil {
		ctx.Printf("unable to log in: %s\n", err)
		return
	}

	persistToken(ctx, c, config)
	ctx.Printf("logged in as %s (id %d)\n", profile.Username, profile.ID)
}

func listConversations(ctx *ishell.Context) {
	c, _ := session(ctx)

	conversations, err := c.Conversations(context.Background())
	if err != nil {
		ctx.Println(err)
		return
	}

	if len(conversations) == 0 {
		ctx.Println("no conversations")
		return
	}

	for _, conversation := range conversations {
		about := "general"
		if conversation.RelatedType != nil && conversation.RelatedID != nil {
			about = *conversation.RelatedType + " #" + strconv.FormatUint(*conversation.RelatedID, 10)
		}

		ctx.Printf("%s (user %d) [%s] %d unread / %d total\n  %s\n",
			conversation.OtherUsername,
			conversation.OtherUserID,
			about,
			conversation.UnreadCount,
			conversation.TotalMessages,
			conversation.LatestMessage,
		)
	}
}

func readConversation(ctx *ishell.Context) {
	c, _ := session(ctx)

	otherID, ok := promptID(ctx, "user id: ")
	if !ok {
		return
	}
	relatedType := prompt(ctx, "related type (blank for general): ")
	relatedID := ""
	if relatedType != "" {
		relatedID = prompt(ctx, "related id: ")
	}

	messages, err := c.ConversationMessages(context.Background(), otherID, relatedType, relatedID)
	if err != nil {
		ctx.Println(err)
		return
	}

	for _, message := range messages {
		ctx.Printf("From %s at %s\n\n%s\n\n%s\n", message.SenderUsername, message.CreatedAt.Format("2006-01-02 15:04"), message.Body, separator)
	}

	affected, err := c.MarkConversationRead(context.Background(), otherID, relatedType, relatedID)
	if err != nil {
		ctx.Println(err)
		return
	}

	if affected > 0 {
		ctx.Printf("marked %d message(s) read\n", affected)
	}
}

func compose(ctx *ishell.Context) {
	c, _ := session(ctx)

	receiver, ok := promptID(ctx, "TO (user id): ")
	if !ok {
		return
	}
	subject := prompt(ctx, "SUBJECT: ")
	body := prompt(ctx, "BODY: ")

	id, err := c.SendMessage(context.Background(), client.SendRequest{
		ReceiverID: receiver,
		Subject:    subject,
		Message:    body,
	})
	if err != nil {
		ctx.Println(err)
		return
	}

	ctx.Printf("sent message %d\n", id)
}

func contact(ctx *ishell.Context) {
	c, _ := session(ctx)

	kind := prompt(ctx, "listing type (housing, roommate, buddy): ")
	listingID, ok := promptID(ctx, "listing id: ")
	if !ok {
		return
	}
	body := prompt(ctx, "BODY: ")

	id, err := c.ContactOwner(context.Background(), kind, listingID, body)
	if err != nil {
		ctx.Println(err)
		return
	}

	ctx.Printf("sent message %d\n", id)
}

func unread(ctx *ishell.Context) {
	c, _ := session(ctx)

	count, err := c.UnreadCount(context.Background())
	if err != nil {
		ctx.Println(err)
		return
	}

	ctx.Printf("%d unread message(s)\n", count)
}

func setHost(ctx *ishell.Context) {
	c, config := session(ctx)

	host := prompt(ctx, "Enter the host to communicate with: ")

	c.SetHost(host)
	config.Host = host
	err := saveConfig(config)
	if err != nil {
		log.Panic(err)
	}
}

func showConfig(ctx *ishell.Context) {
	_, config := session(ctx)

	token := "(none)"
	if config.Token != "" {
		token = "(set)"
	}

	ctx.Printf("Host: %s\n", config.Host)
	ctx.Printf("Token: %s\n", token)
}
