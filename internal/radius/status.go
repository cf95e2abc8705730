package radius

import (
	"fmt"
	"time"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// HandleStatusServer はStatus-Serverリクエスト（RFC 5997）に対する
// Access-Accept応答を構築する。稼働時間をReply-Messageで通知する。
func HandleStatusServer(request *radius.Packet, secret []byte, startedAt time.Time) *radius.Packet {
	resp := request.Response(radius.CodeAccessAccept)

	uptime := time.Since(startedAt).Round(time.Second)
	_ = rfc2865.ReplyMessage_SetString(resp, fmt.Sprintf("up %s", uptime))

	// RFC 5997ではStatus-ServerにMessage-Authenticatorが必須
	SetMessageAuthenticator(resp, secret, request.Authenticator)

	return resp
}
