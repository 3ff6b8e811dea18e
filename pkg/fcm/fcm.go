package fcm

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Error codes reported back to the dispatcher. InvalidToken means the gateway
// explicitly rejected the registration token; Transient covers everything else.
const (
	ErrorCodeInvalidToken = "invalid-token"
	ErrorCodeTransient    = "transient"
)

// Message is the payload delivered to a single device token.
type Message struct {
	Title       string
	Body        string
	ImageURL    string            // Optional notification image
	Data        map[string]string // Custom data payload
	ClickAction string            // URL to open when notification is clicked
	Priority    string            // "high" or "normal"
}

// SendResult reports the outcome of one delivery attempt.
type SendResult struct {
	Success   bool
	ErrorCode string
	Err       error
}

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(credentialsFile string) (*Client, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{
		messagingClient: messagingClient,
	}, nil
}

// SendMessage delivers a push message to one device token and classifies the
// outcome. An unregistered token is reported as ErrorCodeInvalidToken so the
// caller can stop using it; any other failure is ErrorCodeTransient.
func (c *Client) SendMessage(ctx context.Context, token string, msg Message) SendResult {
	priority := msg.Priority
	if priority == "" {
		priority = "high"
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.ImageURL,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: priority,
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
		},
	}
	if msg.ClickAction != "" {
		message.Webpush.FCMOptions = &messaging.WebpushFCMOptions{
			Link: msg.ClickAction,
		}
	}

	response, err := c.messagingClient.Send(ctx, message)
	if err != nil {
		if messaging.IsUnregistered(err) {
			return SendResult{Success: false, ErrorCode: ErrorCodeInvalidToken, Err: err}
		}
		return SendResult{Success: false, ErrorCode: ErrorCodeTransient, Err: err}
	}

	log.Printf("[FCM] Message sent successfully: %s", response)
	return SendResult{Success: true}
}
