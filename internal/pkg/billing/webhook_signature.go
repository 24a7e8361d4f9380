package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// VerifyPaymentSignature checks the checkout callback signature, an
// HMAC-SHA256 over "order_id|payment_id" keyed with the API key secret.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, keySecret string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" {
		return false
	}
	return verifyHexHMAC([]byte(gatewayOrderID+"|"+gatewayPaymentID), signature, keySecret)
}

// VerifyWebhookSignature checks X-Razorpay-Signature over the raw body.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	return verifyHexHMAC(payload, signatureHeader, webhookSecret)
}

// SignPayment produces the signature VerifyPaymentSignature accepts.
func SignPayment(gatewayOrderID, gatewayPaymentID, keySecret string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHexHMAC(payload []byte, signature, secret string) bool {
	sig := strings.TrimSpace(signature)
	secret = strings.TrimSpace(secret)
	if sig == "" || secret == "" {
		return false
	}
	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	return verifyHMAC(payload, decodedSig, []byte(secret), sha256.New)
}

func verifyHMAC(payload, expectedSig, secret []byte, hashFunc func() hash.Hash) bool {
	mac := hmac.New(hashFunc, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expectedSig)
}
