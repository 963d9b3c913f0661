package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeduhub/kidra/internal/domain"
)

func local(name, port string) domain.ServiceDescriptor {
	return domain.NewDescriptor(name, name+"-bin", "localhost", port, "post")
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(local("text-statistics", "1987")))

	d, err := r.Lookup("text-statistics")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1987/post", d.PostAddress())
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(local("svc", "1987")))

	err := r.Register(local("svc", "1988"))
	require.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterDuplicateAutostartAddress(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(local("a", "1987")))

	err := r.Register(local("b", "1987"))
	require.ErrorIs(t, err, ErrDuplicateAddress)

	// a second subdomain of the same process is fine when it is not launched again
	shared := local("c", "1987")
	shared.Autostart = false
	shared.Binary = ""
	require.NoError(t, r.Register(shared))
}

func TestRegisterInvalid(t *testing.T) {
	r := New()
	err := r.Register(domain.ServiceDescriptor{})
	require.ErrorIs(t, err, domain.ErrInvalidDescriptor)
	assert.Equal(t, 0, r.Len())
}

func TestRegisterRejectsRoutePatterns(t *testing.T) {
	r := New()
	for _, name := range []string{"*", "{service}", "a/*"} {
		require.ErrorIs(t, r.Register(local(name, "1987")), domain.ErrInvalidDescriptor, name)
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegisterReservedName(t *testing.T) {
	r := New()
	for _, name := range []string{"_ping", "metrics", "reload"} {
		require.ErrorIs(t, r.Register(local(name, "1987")), ErrReservedName)
	}
	assert.Equal(t, 0, r.Len())
}

func TestLookupNotFound(t *testing.T) {
	_, err := New().Lookup("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAllOrderAndNames(t *testing.T) {
	names := []string{"zeta", "alpha", "mid"}
	r := New()
	for i, name := range names {
		require.NoError(t, r.Register(local(name, string(rune('1'+i)))))
	}

	all := r.All()
	require.Len(t, all, 3)
	for i, d := range all {
		assert.Equal(t, names[i], d.Name)
	}
	assert.Equal(t, names, r.Names())
}

func TestRegisteredDescriptorIsImmutable(t *testing.T) {
	d := local("svc", "1987")
	d.AdditionalArgs = map[string]string{"workers": "1"}

	r := New()
	require.NoError(t, r.Register(d))

	d.AdditionalArgs["workers"] = "99"
	got, err := r.Lookup("svc")
	require.NoError(t, err)
	assert.Equal(t, "1", got.AdditionalArgs["workers"])

	got.AdditionalArgs["workers"] = "42"
	again, _ := r.Lookup("svc")
	assert.Equal(t, "1", again.AdditionalArgs["workers"])
}

func TestFromDescriptorsRejectsConfiguration(t *testing.T) {
	_, err := FromDescriptors([]domain.ServiceDescriptor{local("a", "1"), local("a", "2")})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestConcurrentLookup(t *testing.T) {
	r, err := FromDescriptors([]domain.ServiceDescriptor{local("a", "1"), local("b", "2")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Lookup("a")
			_ = r.All()
		}()
	}
	wg.Wait()
}
