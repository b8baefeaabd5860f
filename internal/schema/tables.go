package schema

import (
	"fmt"
	"strings"

	"zaanjob-backend/internal/domain"

	"github.com/lib/pq"
)

// ExtensionSQL enables uuid_generate_v4.
const ExtensionSQL = `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`

const resumesDDL = `CREATE TABLE IF NOT EXISTS public.resumes (
  id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id UUID,
  firstname TEXT,
  lastname TEXT,
  fullname TEXT,
  title TEXT NOT NULL,
  bio TEXT NOT NULL,
  location TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  website TEXT,
  specialistprofile TEXT,
  nationality TEXT,
  age TEXT,
  yearsofexperience TEXT,
  educationlevel TEXT DEFAULT 'High school',
  skills TEXT[] DEFAULT '{}',
  education JSONB DEFAULT '[]'::jsonb,
  experience JSONB DEFAULT '[]'::jsonb,
  social_media JSONB DEFAULT '{}'::jsonb,
  attachments JSONB DEFAULT '[]'::jsonb,
  certifications JSONB DEFAULT '[]'::jsonb,
  portfolio TEXT[] DEFAULT '{}',
  photo TEXT,
  cv_url TEXT,
  views INTEGER DEFAULT 0,
  contacts INTEGER DEFAULT 0,
  slug TEXT,
  created_at TIMESTAMPTZ DEFAULT now(),
  updated_at TIMESTAMPTZ DEFAULT now()
)`

const usersDDL = `CREATE TABLE IF NOT EXISTS public.users (
  id UUID PRIMARY KEY,
  email TEXT NOT NULL,
  full_name TEXT,
  user_type TEXT NOT NULL DEFAULT 'professional' CHECK (user_type IN ('professional', 'employer', 'admin')),
  created_at TIMESTAMPTZ DEFAULT now(),
  updated_at TIMESTAMPTZ DEFAULT now(),
  last_login TIMESTAMPTZ
)`

// Resumes is the profile table.
func Resumes() domain.TableSchema {
	return domain.TableSchema{
		Name:      "resumes",
		CreateSQL: resumesDDL,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS resumes_user_id_idx ON public.resumes (user_id)`,
			`CREATE INDEX IF NOT EXISTS resumes_created_at_idx ON public.resumes (created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS resumes_slug_idx ON public.resumes (slug)`,
		},
		Policies: []domain.Policy{
			{Name: "Users can view their own resumes", Command: "SELECT", Using: "auth.uid() = user_id"},
			{Name: "Users can insert their own resumes", Command: "INSERT", WithCheck: "auth.uid() = user_id"},
			{Name: "Users can update their own resumes", Command: "UPDATE", Using: "auth.uid() = user_id"},
			{Name: "Users can delete their own resumes", Command: "DELETE", Using: "auth.uid() = user_id"},
			{Name: "Public can view all resumes", Command: "SELECT", Roles: "PUBLIC", Using: "true"},
		},
	}
}

// Users mirrors auth.users.
func Users() domain.TableSchema {
	return domain.TableSchema{
		Name:      "users",
		CreateSQL: usersDDL,
		Indexes: []string{
			`CREATE INDEX IF NOT EXISTS users_email_idx ON public.users (email)`,
		},
		Policies: []domain.Policy{
			{Name: "Users can view their own account", Command: "SELECT", Using: "auth.uid() = id"},
			{Name: "Users can update their own account", Command: "UPDATE", Using: "auth.uid() = id"},
		},
	}
}

// Tables lists every table provisioned, in creation order.
func Tables() []domain.TableSchema {
	return []domain.TableSchema{Users(), Resumes()}
}

func EnableRLSSQL(table string) string {
	return fmt.Sprintf("ALTER TABLE public.%s ENABLE ROW LEVEL SECURITY", pq.QuoteIdentifier(table))
}

// PolicySQL creates p on table unless a policy with that name exists.
func PolicySQL(table string, p domain.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE POLICY %s ON public.%s FOR %s", pq.QuoteIdentifier(p.Name), pq.QuoteIdentifier(table), p.Command)
	if p.Roles != "" {
		fmt.Fprintf(&b, " TO %s", p.Roles)
	}
	if p.Using != "" {
		fmt.Fprintf(&b, " USING (%s)", p.Using)
	}
	if p.WithCheck != "" {
		fmt.Fprintf(&b, " WITH CHECK (%s)", p.WithCheck)
	}

	return fmt.Sprintf(`DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM pg_policies
    WHERE schemaname = 'public' AND tablename = %s AND policyname = %s
  ) THEN
    %s;
  END IF;
END
$$`, pq.QuoteLiteral(table), pq.QuoteLiteral(p.Name), b.String())
}
