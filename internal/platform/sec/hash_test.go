// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/storefront/internal/platform/sec"
)

/*
TestHashPassword_RoundTrip verifies hashing and comparison at a cheap cost.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("wrong horse", hash))
}

/*
TestHashPassword_Salted verifies two hashes of one password differ.
*/
func TestHashPassword_Salted(t *testing.T) {
	first, err := sec.HashPassword("secret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := sec.HashPassword("secret-pass", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestHashPassword_CostBounds verifies the configured work factor is honoured and bounded.
*/
func TestHashPassword_CostBounds(t *testing.T) {
	hash, err := sec.HashPassword("secret-pass", 5)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)

	_, err = sec.HashPassword("secret-pass", bcrypt.MinCost-1)
	assert.Error(t, err)
	_, err = sec.HashPassword("secret-pass", bcrypt.MaxCost+1)
	assert.Error(t, err)
}

/*
TestCheckPasswordHash_GarbageHash verifies a corrupt stored hash never matches.
*/
func TestCheckPasswordHash_GarbageHash(t *testing.T) {
	assert.False(t, sec.CheckPasswordHash("anything", "not-a-bcrypt-hash"))
}
