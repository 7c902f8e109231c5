package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestLoginFilter(t *testing.T) {
	f, ok := loginFilter("a@b.co", "")
	assert.True(t, ok)
	assert.Equal(t, bson.M{"$or": bson.A{bson.M{"email": "a@b.co"}}}, f)

	f, ok = loginFilter("a@b.co", "alice")
	assert.True(t, ok)
	assert.Equal(t, bson.M{"$or": bson.A{bson.M{"email": "a@b.co"}, bson.M{"username": "alice"}}}, f)

	_, ok = loginFilter("", "")
	assert.False(t, ok)
}
