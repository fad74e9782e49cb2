package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// WeChat posts text messages to a WeChat Work group robot webhook.
type WeChat struct {
	client *resty.Client
	url    string
}

type wechatMessage struct {
	MsgType string     `json:"msgtype"`
	Text    wechatText `json:"text"`
}

type wechatText struct {
	Content string `json:"content"`
}

type wechatResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// NewWeChat returns a WeChat sender for url.
func NewWeChat(client *resty.Client, url string) *WeChat {
	return &WeChat{client: client, url: url}
}

// Name implements Sender.
func (w *WeChat) Name() string { return "wechat" }

// Send implements Sender. The robot answers 200 even for rejected messages,
// so errcode is checked too.
func (w *WeChat) Send(ctx context.Context, text string) error {
	var result wechatResponse
	res, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(wechatMessage{MsgType: "text", Text: wechatText{Content: text}}).
		SetResult(&result).
		Post(w.url)
	if err := checkResponse(w.Name(), res, err, w.url); err != nil {
		return err
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("%s: errcode %d: %s", w.Name(), result.ErrCode, result.ErrMsg)
	}
	return nil
}
