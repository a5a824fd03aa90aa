package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/chandanbangre/hikeonAssessment/internal/logging"
	"github.com/chandanbangre/hikeonAssessment/internal/panel"
	"github.com/chandanbangre/hikeonAssessment/internal/session"
	"github.com/chandanbangre/hikeonAssessment/internal/shopify"
)

// panelPage serves the embedded admin page. Shops without a stored session are sent
// through OAuth first.
func (a *App) panelPage(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	q := req.QueryStringParameters
	token := q["id_token"]

	sess, ctx, err := a.authenticate(ctx, token)
	if err != nil {
		shop := shopify.NormalizeShop(q["shop"])
		if shopify.IsValidShopDomain(shop) && a.notInstalled(ctx, shop, err) {
			return redirect(authPath + "?shop=" + url.QueryEscape(shop))
		}
		return a.fail(ctx, err)
	}

	state := panel.State{}
	if q["modal"] == "open" {
		state, _ = state.Apply(panel.Open{})
	}
	return a.renderPanel(ctx, sess, token, state, nil)
}

func (a *App) notInstalled(ctx context.Context, shop string, authErr error) bool {
	if errors.Is(authErr, session.ErrNotFound) {
		return true
	}
	_, err := a.Sessions.Load(ctx, shop)
	return errors.Is(err, session.ErrNotFound)
}

func (a *App) panelCreateCarrier(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	form, err := formValues(req)
	if err != nil {
		return errResp(400, "invalid form body")
	}
	token := form.Get("id_token")
	sess, ctx, err := a.authenticate(ctx, token)
	if err != nil {
		return a.fail(ctx, err)
	}

	name, callbackURL := form.Get("name"), form.Get("callbackUrl")
	modal := panel.State{Phase: panel.ModalOpen, Name: name, CallbackURL: callbackURL}

	switch form.Get("action") {
	case "cancel":
		next, _ := modal.Apply(panel.Cancel{})
		return a.renderPanel(ctx, sess, token, next, nil)
	case "edit":
		next, _ := modal.Apply(panel.Edit{Name: name, CallbackURL: callbackURL})
		return a.renderPanel(ctx, sess, token, next, nil)
	}

	admin := a.admin(sess)
	existing, err := a.Carriers.List(ctx, admin)
	if err != nil {
		failed, _ := modal.Apply(panel.Submit{Name: name, CallbackURL: callbackURL})
		failed, _ = failed.Apply(panel.Failed{Message: userMessage(err)})
		return a.renderPanel(ctx, sess, token, failed, nil)
	}
	names := make([]string, 0, len(existing))
	for _, cs := range existing {
		names = append(names, cs.Name)
	}

	state, _ := modal.Apply(panel.Submit{Name: name, CallbackURL: callbackURL, Existing: names})
	if state.Phase != panel.Submitting {
		return a.renderPanelWith(ctx, sess, token, state, nil, existing)
	}

	created, err := a.createCarrier(ctx, sess, name, callbackURL)
	if err != nil {
		logging.FromContext(ctx).Warn("panel carrier create failed", zap.Error(err))
		state, _ = state.Apply(panel.Failed{Message: userMessage(err)})
		return a.renderPanelWith(ctx, sess, token, state, nil, existing)
	}
	state, _ = state.Apply(panel.Succeeded{Name: created.Name})
	return a.renderPanel(ctx, sess, token, state, nil)
}

func (a *App) panelSeedProducts(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	form, err := formValues(req)
	if err != nil {
		return errResp(400, "invalid form body")
	}
	token := form.Get("id_token")
	sess, ctx, err := a.authenticate(ctx, token)
	if err != nil {
		return a.fail(ctx, err)
	}

	notice := &panel.Banner{Tone: panel.ToneSuccess}
	if n, err := a.seed(ctx, sess); err != nil {
		logging.FromContext(ctx).Warn("panel seed failed", zap.Error(err))
		notice = &panel.Banner{Tone: panel.ToneCritical, Message: userMessage(err)}
	} else {
		notice.Message = fmt.Sprintf("%d products created", n)
	}
	return a.renderPanel(ctx, sess, token, panel.State{}, notice)
}

// renderPanel reloads the carrier list and renders the page.
func (a *App) renderPanel(ctx context.Context, sess session.Session, token string, state panel.State, notice *panel.Banner) (events.APIGatewayV2HTTPResponse, error) {
	list, err := a.Carriers.List(ctx, a.admin(sess))
	if err != nil {
		logging.FromContext(ctx).Warn("panel list carrier services", zap.Error(err))
		if notice == nil && state.Banner() == nil {
			notice = &panel.Banner{Tone: panel.ToneCritical, Message: userMessage(err)}
		}
	}
	return a.renderPanelWith(ctx, sess, token, state, notice, list)
}

func (a *App) renderPanelWith(ctx context.Context, sess session.Session, token string, state panel.State, notice *panel.Banner, list []shopify.CarrierService) (events.APIGatewayV2HTTPResponse, error) {
	var buf bytes.Buffer
	err := panel.Render(&buf, panel.View{
		Shop:     sess.Shop,
		APIKey:   a.Cfg.ShopifyAPIKey,
		IDToken:  token,
		Services: list,
		State:    state,
		Notice:   notice,
	})
	if err != nil {
		logging.FromContext(ctx).Error("render panel", zap.Error(err))
		return errResp(500, "internal error")
	}
	return htmlResp(200, buf.String(), sess.Shop)
}
