// Package passagesdk provides a Go client for the Passage credential and
// session lifecycle service, plus the error and response types shared with
// the server's HTTP layer.
//
// Basic usage:
//
//	client := passagesdk.NewClient("https://passage.example.com")
//	session, err := client.Login(ctx, "user@example.com", "hunter2")
//	if err != nil {
//		var challenge *passagesdk.MFAChallengeError
//		if errors.As(err, &challenge) {
//			session, err = client.VerifyMFA(ctx, challenge.Ticket, code)
//		}
//	}
//
// Sessions refresh their access token automatically when it nears expiry.
package passagesdk
