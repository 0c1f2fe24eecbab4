package userinput

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

type captureSender struct {
	sent []Response
	err  error
}

func (c *captureSender) SendInputResponse(_ context.Context, _ *Request, resp Response) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, resp)
	return nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"TEXT_INPUT", KindText},
		{"string_entry", KindText},
		{"NUMERIC_AMOUNT", KindNumeric},
		{"AMOUNT_ENTRY", KindNumeric},
		{"SELECT_OPTION", KindSelection},
		{"MENU_CHOICE", KindSelection},
		{"CONFIRM_SIGNATURE", KindConfirmation},
		{"ACKNOWLEDGE", KindConfirmation},
		{"DISPLAY_ONLY", KindUnknown},
		{"", KindUnknown},
		{"SOMETHING_ELSE", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.tag))
		})
	}
}

func TestRequiresInputSentinels(t *testing.T) {
	require.False(t, RequiresInput("DISPLAY_ONLY"))
	require.False(t, RequiresInput("ACKNOWLEDGE"))
	require.False(t, RequiresInput(""))
	require.True(t, RequiresInput("TEXT_INPUT"))
	require.True(t, RequiresInput("PIN_ENTRY"))
}

func TestMasked(t *testing.T) {
	require.True(t, Masked("PIN_ENTRY"))
	require.True(t, Masked("password_field"))
	require.True(t, Masked("SECURE_TEXT"))
	require.False(t, Masked("TEXT_INPUT"))
	require.False(t, Masked("NUMERIC_AMOUNT"))
}

func TestSlotSingleUse(t *testing.T) {
	sender := &captureSender{}
	req := NewRequest("NUMERIC_AMOUNT", "Enter amount", "", nil)
	slot := NewSlot(req, sender)

	require.NoError(t, slot.SetNumeric(1500))

	err := slot.SetText("nope")
	require.ErrorIs(t, err, faults.ErrProtocol)

	require.NoError(t, slot.Send(context.Background()))
	require.Len(t, sender.sent, 1)
	require.Equal(t, KindNumeric, sender.sent[0].Kind)
	require.Equal(t, int64(1500), sender.sent[0].Numeric)

	err = slot.Send(context.Background())
	require.ErrorIs(t, err, faults.ErrProtocol)
}

func TestSlotSendWithoutValue(t *testing.T) {
	slot := NewSlot(NewRequest("TEXT_INPUT", "", "", nil), &captureSender{})
	err := slot.Send(context.Background())
	require.ErrorIs(t, err, faults.ErrProtocol)
}

func TestSlotSelectionBounds(t *testing.T) {
	req := NewRequest("SELECT_OPTION", "", "", []string{"a", "b"})
	slot := NewSlot(req, &captureSender{})

	require.ErrorIs(t, slot.SetSelection(-1), faults.ErrValidation)
	require.ErrorIs(t, slot.SetSelection(2), faults.ErrValidation)
	require.NoError(t, slot.SetSelection(1))
}

func TestMediatorAutoAcknowledgesDisplayOnly(t *testing.T) {
	sender := &captureSender{}
	handlerCalled := false
	m := NewMediator(sender, func(context.Context, *Request, *Slot) error {
		handlerCalled = true
		return nil
	})

	req := m.HandlePrompt(context.Background(), "DISPLAY_ONLY", "", "Card read OK", nil)

	require.False(t, req.RequiresInput)
	require.False(t, handlerCalled)
	require.Len(t, sender.sent, 1)
	require.Equal(t, KindConfirmation, sender.sent[0].Kind)
	require.True(t, sender.sent[0].Confirmed)
}

func TestMediatorRoutesToOperator(t *testing.T) {
	sender := &captureSender{}
	m := NewMediator(sender, func(ctx context.Context, req *Request, slot *Slot) error {
		if err := slot.SetNumeric(2000); err != nil {
			return err
		}
		return slot.Send(ctx)
	})

	req := m.HandlePrompt(context.Background(), "NUMERIC_AMOUNT", "Enter tip", "", nil)

	require.True(t, req.RequiresInput)
	require.False(t, req.Masked)
	require.Len(t, sender.sent, 1)
	require.Equal(t, int64(2000), sender.sent[0].Numeric)
}

func TestMediatorDefaultsOnHandlerError(t *testing.T) {
	sender := &captureSender{}
	m := NewMediator(sender, func(context.Context, *Request, *Slot) error {
		return errors.New("operator walked away")
	})

	m.HandlePrompt(context.Background(), "CONFIRM_SIGNATURE", "", "", nil)

	require.Len(t, sender.sent, 1)
	require.Equal(t, KindConfirmation, sender.sent[0].Kind)
	require.True(t, sender.sent[0].Confirmed)
}

func TestMediatorDefaultsOnHandlerPanic(t *testing.T) {
	sender := &captureSender{}
	m := NewMediator(sender, func(context.Context, *Request, *Slot) error {
		panic("boom")
	})

	m.HandlePrompt(context.Background(), "TEXT_INPUT", "", "", nil)

	require.Len(t, sender.sent, 1)
	require.True(t, sender.sent[0].Confirmed)
}

func TestMediatorSendsStagedValueWhenHandlerForgotSend(t *testing.T) {
	sender := &captureSender{}
	m := NewMediator(sender, func(_ context.Context, _ *Request, slot *Slot) error {
		return slot.SetText("4111")
	})

	m.HandlePrompt(context.Background(), "TEXT_INPUT", "Enter last four", "", nil)

	require.Len(t, sender.sent, 1)
	require.Equal(t, KindText, sender.sent[0].Kind)
	require.Equal(t, "4111", sender.sent[0].Text)
}

func TestMediatorUnknownKindGetsDefaultWithoutOperator(t *testing.T) {
	sender := &captureSender{}
	called := false
	m := NewMediator(sender, func(context.Context, *Request, *Slot) error {
		called = true
		return nil
	})

	m.HandlePrompt(context.Background(), "WEIRD_NEW_PROMPT", "", "", nil)

	require.False(t, called)
	require.Len(t, sender.sent, 1)
	require.True(t, sender.sent[0].Confirmed)
}

func TestMediatorMaskedPinPrompt(t *testing.T) {
	sender := &captureSender{}
	m := NewMediator(sender, func(ctx context.Context, req *Request, slot *Slot) error {
		require.True(t, req.Masked)
		if err := slot.SetText("1234"); err != nil {
			return err
		}
		return slot.Send(ctx)
	})

	req := m.HandlePrompt(context.Background(), "PIN_TEXT_ENTRY", "Enter PIN", "", nil)
	require.True(t, req.Masked)
	require.Len(t, sender.sent, 1)
}
